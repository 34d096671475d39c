package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/testutil"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw    string
		kind   Kind
		remote bool
	}{
		{"https://acct.blob.core.windows.net/docs/a.pdf?sig=1", KindPDF, true},
		{"http://host/scan.tiff", KindPDF, true},
		{"/data/report.PDF", KindPDF, false},
		{"/data/scan.tif", KindTIFF, false},
		{"/data/scan.tiff", KindTIFF, false},
		{"/data/photo.jpg", KindRaster, false},
		{"/data/unknown.xyz", KindRaster, false},
		{"relative/noext", KindRaster, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d := Resolve(tt.raw)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.remote, d.Remote)
			assert.Equal(t, tt.raw, d.Raw)
		})
	}
}

func TestToDataURL(t *testing.T) {
	png := testutil.WriteFile(t, "dot.png", []byte{1, 2, 3})
	got, err := ToDataURL(png)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", got)

	blob := testutil.WriteFile(t, "blob.zzz", []byte("hi"))
	got, err = ToDataURL(blob)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:application/octet-stream;base64,"))

	_, err = ToDataURL("/nonexistent/file.png")
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("payload"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(LoaderConfig{Timeout: 50 * time.Millisecond, MaxBytes: 32}, srv.Client(), nil)
	ctx := context.Background()

	data, err := l.Fetch(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = l.Fetch(ctx, srv.URL+"/forbidden")
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorTypeNetwork, de.Type)
	assert.Equal(t, http.StatusForbidden, de.StatusCode)
	assert.False(t, de.Retryable())

	_, err = l.Fetch(ctx, srv.URL+"/slow")
	assert.True(t, domain.IsType(err, domain.ErrorTypeTimeout), "got %v", err)

	_, err = l.Fetch(ctx, srv.URL+"/big")
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewLoader(LoaderConfig{Timeout: time.Second}, nil, nil).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNetwork))
	assert.True(t, domain.IsRetryable(err))
}

func TestOpenRemotePDF(t *testing.T) {
	pdfBytes := testutil.BuildPDF(testutil.Page{Width: 72, Height: 72}, testutil.Page{Width: 72, Height: 72})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/doc.pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(pdfBytes)
			return
		}
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	l := NewLoader(LoaderConfig{Timeout: time.Second}, srv.Client(), nil)

	doc, err := l.OpenRemotePDF(context.Background(), srv.URL+"/doc.pdf")
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 2, doc.NumPage())

	_, err = l.OpenRemotePDF(context.Background(), srv.URL+"/login")
	assert.True(t, domain.IsType(err, domain.ErrorTypeDecode))
}
