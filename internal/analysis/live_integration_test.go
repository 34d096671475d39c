//go:build integration

package analysis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = godotenv.Load("../../.env")
}

// TestLiveLayoutAnalysis runs prebuilt-layout against a real Document
// Intelligence resource.
func TestLiveLayoutAnalysis(t *testing.T) {
	endpoint := os.Getenv("DOCUMENT_INTELLIGENCE_ENDPOINT")
	key := os.Getenv("DOCUMENT_INTELLIGENCE_KEY")
	docURL := os.Getenv("FX_SAMPLE_DOCUMENT_URL")
	if endpoint == "" || key == "" {
		t.Skip("DOCUMENT_INTELLIGENCE_ENDPOINT / DOCUMENT_INTELLIGENCE_KEY not set")
	}
	if docURL == "" {
		t.Skip("FX_SAMPLE_DOCUMENT_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := NewClient(ClientConfig{
		Endpoint:     endpoint,
		Key:          key,
		PollInterval: 2 * time.Second,
	}, nil, nil)

	res, err := client.Analyze(ctx, LayoutModel, docURL)
	require.NoError(t, err)

	require.NotEmpty(t, res.Pages)
	assert.NotEmpty(t, res.Content)
	assert.Equal(t, "markdown", res.ContentFormat)
	for _, p := range res.Pages {
		assert.Contains(t, []string{"inch", "pixel"}, p.Unit)
	}
	for _, f := range res.Figures {
		for _, r := range f.BoundingRegions {
			assert.GreaterOrEqual(t, len(r.Polygon), 8)
			assert.GreaterOrEqual(t, r.PageNumber, 1)
		}
	}
	t.Logf("analyzed %d pages, %d figures, %d tables", len(res.Pages), len(res.Figures), len(res.Tables))
}
