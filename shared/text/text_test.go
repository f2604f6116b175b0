package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := New()

	t.Run("newlines become line breaks", func(t *testing.T) {
		out, err := r.Render("first line\r\nsecond line")
		require.NoError(t, err)
		assert.Contains(t, out, "first line<br")
		assert.Contains(t, out, "second line")
	})

	t.Run("bare urls become links opening in new tab", func(t *testing.T) {
		out, err := r.Render("see https://example.com/page for details")
		require.NoError(t, err)
		assert.Contains(t, out, `href="https://example.com/page"`)
		assert.Contains(t, out, `target="_blank"`)
		assert.Contains(t, out, "noopener")
	})

	t.Run("raw html is dropped", func(t *testing.T) {
		out, err := r.Render("hi <script>alert(1)</script><img src=x onerror=alert(1)>")
		require.NoError(t, err)
		assert.NotContains(t, out, "<script")
		assert.NotContains(t, out, "onerror")
	})

	t.Run("javascript links are removed", func(t *testing.T) {
		out := r.MustRender("[click](javascript:alert(1))")
		assert.NotContains(t, out, "javascript:")
	})
}
