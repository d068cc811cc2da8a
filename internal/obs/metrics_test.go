package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                            "/",
		"/metrics":                    "/metrics",
		"/api/users":                  "/api/users",
		"/api/users/42":               "/api/users/:id",
		"/api/products/7":             "/api/products/:id",
		"/api/products/7?fields=name": "/api/products/:id",
		"/api/products/categories":    "/api/products/categories",
		"/api/products/barcode/0123":  "/api/products/barcode/:code",
		"/api/auth/login":             "/api/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
