package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Figure 1: Sales (Q3)!!.png", "figure_1_sales_q3_.png"},
		{"figure_2_.png", "figure_2_.png"},
		{"__leading and trailing__", "leading_and_trailing"},
		{"売上グラフ.png", ".png"},
		{"a-b.c_d", "a-b.c_d"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, in := range []string{"Figure 1: Sales (Q3)!!.png", "x__y", "  A  "} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once))
	}
}

func FuzzSanitize(f *testing.F) {
	for _, seed := range []string{"Figure 1: Sales (Q3)!!.png", "__x__", "売上グラフ", "a--b..c", "", "_", "\xff\xfe"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		out := Sanitize(in)
		for _, r := range out {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.' || r == '-') {
				t.Fatalf("Sanitize(%q) = %q contains %q", in, out, r)
			}
		}
		if strings.Contains(out, "__") {
			t.Fatalf("Sanitize(%q) = %q contains a double underscore", in, out)
		}
		if strings.HasPrefix(out, "_") || strings.HasSuffix(out, "_") {
			t.Fatalf("Sanitize(%q) = %q has an edge underscore", in, out)
		}
		if again := Sanitize(out); again != out {
			t.Fatalf("Sanitize not idempotent: %q then %q", out, again)
		}
	})
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://host/path/My%20File.pdf", "My File.pdf"},
		{"https://acct.blob.core.windows.net/docs/report.pdf?sv=2022&sig=abc", "report.pdf"},
		{"https://host/dir/", ""},
		{"https://host", ""},
		{"/local/dir/scan.tiff", "scan.tiff"},
		{"https://host/a%2Fb.pdf", "a/b.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromURL(tt.in))
		})
	}
}

func TestFigureFilename(t *testing.T) {
	assert.Equal(t, "figure_1_sales_by_region.png", FigureFilename(0, "Sales by Region"))
	assert.Equal(t, "figure_3_.png", FigureFilename(2, ""))
}

func TestStorageDir(t *testing.T) {
	assert.Equal(t, "report_v2_pdf", StorageDir("https://host/docs/report.v2.pdf?sig=x"))
}
