package docsource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/adapter/docsource"
)

func TestExtractHTML(t *testing.T) {
	html := `<html>
<head><title>Prompting Guide</title><style>body { color: red }</style></head>
<body>
<nav><a href="/">Home</a></nav>
<h1>Prompting Guide</h1>
<p>Write clear instructions.</p>
<h2>Examples</h2>
<ul><li>Few-shot</li><li>Chain of thought</li></ul>
<script>alert("hi")</script>
<footer>Copyright</footer>
</body>
</html>`

	title, text, err := docsource.ExtractHTML(html)
	require.NoError(t, err)

	assert.Equal(t, "Prompting Guide", title)
	assert.Contains(t, text, "# Prompting Guide")
	assert.Contains(t, text, "## Examples")
	assert.Contains(t, text, "- Few-shot")
	assert.Contains(t, text, "Write clear instructions.")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "Home")
}

func TestExtractHTML_TitleFallsBackToH1(t *testing.T) {
	title, _, err := docsource.ExtractHTML("<body><h1>Only Header</h1><p>Text.</p></body>")
	require.NoError(t, err)
	assert.Equal(t, "Only Header", title)
}

func TestExtractHTML_Empty(t *testing.T) {
	title, text, err := docsource.ExtractHTML("")
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Empty(t, text)
}
