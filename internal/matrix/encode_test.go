package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Shape(t *testing.T) {
	doc := Document{Suites: []Suite{
		{
			Name: "test_math.TestMath",
			Cases: []Case{
				{Name: "test_math.TestMath.test_add"},
			},
		},
	}}

	data, err := Encode(doc)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "\n"))

	// Key order follows struct field order
	text := string(data)
	assert.Less(t, strings.Index(text, "testsuitename"), strings.Index(text, "testcase"))
	assert.Less(t, strings.Index(text, "testcasename"), strings.Index(text, "testresult"))
	assert.Less(t, strings.Index(text, "testresult"), strings.Index(text, "testlog"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	suites := decoded["testsuite"].([]interface{})
	require.Len(t, suites, 1)
	suite := suites[0].(map[string]interface{})
	assert.Equal(t, "test_math.TestMath", suite["testsuitename"])
	cases := suite["testcase"].([]interface{})
	first := cases[0].(map[string]interface{})
	assert.Equal(t, "test_math.TestMath.test_add", first["testcasename"])
	assert.Equal(t, "", first["testresult"])
	assert.Equal(t, "", first["testlog"])
}

func TestEncode_Deterministic(t *testing.T) {
	doc := FromTestIDs(sampleIDs())
	a, err := Encode(doc)
	require.NoError(t, err)
	b, err := Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAppendToFile_CreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix", "testmatrix.json")

	require.NoError(t, AppendToFile(path, []byte("first\n")))
	require.NoError(t, AppendToFile(path, []byte("second\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestAppendToFile_PreservesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	doc := FromTestIDs(sampleIDs())
	data, err := Encode(doc)
	require.NoError(t, err)
	require.NoError(t, AppendToFile(path, data))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "existing\n"))
	assert.Contains(t, string(content), "test_math.TestMath")
}
