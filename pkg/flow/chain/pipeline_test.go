package chain

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/lite"
)

// TestURLProcessingPipeline runs the URL checks through a graph without HTTP requests
func TestURLProcessingPipeline(t *testing.T) {
	urls := []string{
		// Valid URLs by structure (we won't actually fetch them)
		"https://www.example.com",
		"https://www.test.org",
		"https://www.google.com",
		"https://www.microsoft.com",
		"https://www.micros---oft.com",
		"https://www.mic--ros---oft.com",

		// Invalid URLs by structure
		"invalid-url",
		"ftp://invalid-protocol.com",
	}

	results := processRequest(t, urls)

	validCount := 0
	invalidCount := 0
	for _, res := range results {
		if res == "invalid" {
			invalidCount++
		} else {
			validCount++
		}
	}

	assert.Equal(t, len(urls), len(results))
	assert.Equal(t, 2, invalidCount)
	assert.Equal(t, 6, validCount)
}

func processRequest(t *testing.T, urls []string) []string {
	t.Helper()

	observer, _, faults := core.Notifications(len(urls))
	results := lite.NewCollector[string]()

	fetch := lite.Try(mockFetchTitle, core.WithName("fetch"), core.WithObserver(observer))
	c := Then(Then(
		From[string](lite.FromSlice(urls, core.WithName("urls"))),
		fetch),
		lite.Map(calculateTitleLength, core.WithName("length"))).
		To(results)
	require.NoError(t, c.Err())

	c.Group().Start()
	defer func() { assert.NoError(t, c.Group().Close()) }()

	invalid := 0
	require.Eventually(t, func() bool {
		for {
			select {
			case <-faults:
				invalid++
			default:
				return results.Len()+invalid == len(urls)
			}
		}
	}, 5*time.Second, time.Millisecond)

	out := results.Values()
	for range invalid {
		out = append(out, "invalid")
	}
	return out
}

// mockFetchTitle simulates fetching a title without making HTTP requests
func mockFetchTitle(ctx context.Context, url string) (string, error) {
	valid, _ := validateURLTest(ctx, url)
	if valid {
		return "Mock Page Title for " + url, nil
	}
	return "", fmt.Errorf("invalid URL")
}

// validateURLTest checks the URL starts with http:// or https://
func validateURLTest(_ context.Context, url string) (bool, string) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false, "URL must start with http:// or https://"
	}
	return true, ""
}

func calculateTitleLength(_ context.Context, title string) string {
	return fmt.Sprintf("title length: %d", len(title))
}
