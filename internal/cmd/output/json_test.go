package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testServer struct {
	URL    string `json:"url" yaml:"url"`
	Active bool   `json:"active" yaml:"active"`
}

func TestJSONHandler_Writer(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewJSONHandler[testServer](buf, 2)
	require.Equal(t, buf, h.Writer())
}

func TestJSONHandler_HandleResults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewJSONHandler[testServer](buf, 2)

	err := h.HandleResults(
		testServer{URL: "http://localhost:4096", Active: true},
		testServer{URL: "https://example.com"},
	)
	require.NoError(t, err)

	expected := `{
  "results": [
    {
      "url": "http://localhost:4096",
      "active": true
    },
    {
      "url": "https://example.com",
      "active": false
    }
  ]
}` + "\n"
	require.Equal(t, expected, buf.String())
}

func TestJSONHandler_HandleResults_Empty(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewJSONHandler[testServer](buf, 0)

	require.NoError(t, h.HandleResults())
	require.Equal(t, `{"results":[]}`+"\n", buf.String())
}

func TestJSONHandler_HandleResult(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewJSONHandler[testServer](buf, 0)

	require.NoError(t, h.HandleResult(testServer{URL: "http://a:1"}))
	require.Equal(t, `{"result":{"url":"http://a:1","active":false}}`+"\n", buf.String())
}

func TestJSONHandler_HandleError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewJSONHandler[testServer](buf, 0)

	require.NoError(t, h.HandleError(errors.New("server not found")))
	require.Equal(t, `{"error":"server not found"}`+"\n", buf.String())
}
