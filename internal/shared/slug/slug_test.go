package slug

import "testing"

func TestFromName(t *testing.T) {
	cases := map[string]string{
		"Classic Tee":          "classic-tee",
		"  Linen Shirt (2024) ": "linen-shirt-2024",
		"---":                  "product",
		"":                     "product",
		"Çanta Büyük":          "canta-buyuk",
		"日本":                   "product",
	}
	for in, want := range cases {
		if got := FromName(in); got != want {
			t.Errorf("FromName(%q) = %q, want %q", in, got, want)
		}
	}
}
