package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedBundle = "../../configs/model-bundle.yaml"

func run(t *testing.T, stdin string, args ...string) (map[string]interface{}, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	return resp, nil
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		wantSuccess bool
		wantCluster string
		wantError   string
	}{
		{
			name:        "regular attendee",
			stdin:       `{"Hours_Studied":12,"Attendance":95,"Tutoring_Sessions":0,"Physical_Activity":3,"Sleep_Hours":7,"Parental_Involvement":"High","Access_to_Resources":"Medium","Extracurricular_Activities":"Yes"}`,
			wantSuccess: true,
			wantCluster: "Regular Attendees",
		},
		{name: "empty stdin", stdin: "", wantError: "No input data provided"},
		{name: "malformed", stdin: "{", wantError: "invalid JSON input"},
		{name: "missing column", stdin: `{"Attendance":80}`, wantError: "SCHEMA_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := run(t, tt.stdin, "predict", "--bundle", shippedBundle)

			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, resp["success"])
			if tt.wantSuccess {
				assert.Equal(t, tt.wantCluster, resp["cluster_name"])
				assert.Contains(t, resp, "recommendations")
			} else {
				assert.Contains(t, resp["error"], tt.wantError)
			}
		})
	}
}

func TestPredict_MissingBundle(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`{}`))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"predict", "--bundle", filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_LOAD_ERROR")

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "CONFIG_LOAD_ERROR")
	assert.NotContains(t, resp, "recommendations")
}

func TestRecommend(t *testing.T) {
	resp, err := run(t, `[{"Hours_Studied": -2, "Cluster_Name": "Focused Learners"}]`, "recommend")

	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])
	recs, ok := resp["recommendations"].([]interface{})
	require.True(t, ok)
	assert.Len(t, recs, 4)
	assert.Equal(t, "Increase daily self-study time with a fixed schedule.", recs[0])
}

func TestRecommend_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "row.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Sleep_Hours": 1}`), 0o600))

	resp, err := run(t, "", "recommend", "--input", path)

	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Keep your healthy sleep routine; avoid late-night screen time before exams."}, resp["recommendations"])
}

func TestRecommend_MissingFile(t *testing.T) {
	_, err := run(t, "", "recommend", "--input", filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}

func TestRegistry(t *testing.T) {
	registryPath := "../../configs/activity-registry.json"

	for _, args := range [][]string{
		{"registry", "validate", "--path", registryPath},
		{"registry", "list", "--path", registryPath},
	} {
		cmd := NewRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)

		require.NoError(t, cmd.Execute(), args)
		assert.NotEmpty(t, out.String())
	}

	bad := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"activities":[{"id":"x"}]}`), 0o600))
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"registry", "validate", "--path", bad})
	assert.ErrorContains(t, cmd.Execute(), "registry invalid")
}

func TestCache(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("learnstyle:prediction:aaa", "{}"))
	require.NoError(t, mr.Set("learnstyle:prediction:bbb", "{}"))
	require.NoError(t, mr.Set("unrelated", "x"))

	exec := func(args ...string) string {
		cmd := NewRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append(args, "--redis-addr", mr.Addr()))
		require.NoError(t, cmd.Execute(), args)
		return out.String()
	}

	assert.Equal(t, "2 cached predictions\n", exec("cache", "stats"))
	assert.Equal(t, "removed 2 cached predictions\n", exec("cache", "flush"))
	assert.Equal(t, "0 cached predictions\n", exec("cache", "stats"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"cache", "stats", "--redis-addr", addr})
	assert.ErrorContains(t, cmd.Execute(), "redis ping failed")
}
