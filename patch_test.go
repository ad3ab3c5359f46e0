package jsondelta_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"

	"github.com/agentflare-ai/jsondelta"
)

func TestApply(t *testing.T) {
	testCases := []struct {
		name        string
		doc         string
		patch       string
		expected    string
		expectedErr string
		kind        jsondelta.ErrorKind
	}{
		// RFC 6902, Appendix A.1. Add an Object Member
		{
			name:     "add an object member",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"add","path":"/b","value":"e"}]`,
			expected: `{"a":"b","b":"e","c":"d"}`,
		},
		// RFC 6902, Appendix A.2. Add an Array Element
		{
			name:     "add an array element",
			doc:      `{"foo":["bar","baz"]}`,
			patch:    `[{"op":"add","path":"/foo/1","value":"qux"}]`,
			expected: `{"foo":["bar","qux","baz"]}`,
		},
		// RFC 6902, Appendix A.3. Remove an Object Member
		{
			name:     "remove an object member",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"remove","path":"/a"}]`,
			expected: `{"c":"d"}`,
		},
		// RFC 6902, Appendix A.4. Remove an Array Element
		{
			name:     "remove an array element",
			doc:      `{"foo":["bar","qux","baz"]}`,
			patch:    `[{"op":"remove","path":"/foo/1"}]`,
			expected: `{"foo":["bar","baz"]}`,
		},
		// RFC 6902, Appendix A.5. Replace a Value
		{
			name:     "replace a value",
			doc:      `{"a":"b","c":"d"}`,
			patch:    `[{"op":"replace","path":"/a","value":"e"}]`,
			expected: `{"a":"e","c":"d"}`,
		},
		// RFC 6902, Appendix A.6. Move a Value
		{
			name:     "move a value",
			doc:      `{"foo":{"bar":"baz","waldo":"fred"},"qux":{"corge":"grault"}}`,
			patch:    `[{"op":"move","from":"/foo/waldo","path":"/qux/thud"}]`,
			expected: `{"foo":{"bar":"baz"},"qux":{"corge":"grault","thud":"fred"}}`,
		},
		// RFC 6902, Appendix A.7. Move an Array Element
		{
			name:     "move an array element",
			doc:      `{"foo":["all","grass","cows","eat"]}`,
			patch:    `[{"op":"move","from":"/foo/1","path":"/foo/3"}]`,
			expected: `{"foo":["all","cows","eat","grass"]}`,
		},
		// RFC 6902, Appendix A.8. Test a Value
		{
			name:     "test a value (success)",
			doc:      `{"baz":"qux","foo":["a",2,"c"]}`,
			patch:    `[{"op":"test","path":"/baz","value":"qux"}]`,
			expected: `{"baz":"qux","foo":["a",2,"c"]}`,
		},
		// RFC 6902, Appendix A.9. Test a Value (error)
		{
			name:        "test a value (error)",
			doc:         `{"baz":"qux"}`,
			patch:       `[{"op":"test","path":"/baz","value":"bar"}]`,
			expectedErr: "test failed",
			kind:        jsondelta.TestFailed,
		},
		{
			name:     "add to empty array",
			doc:      `[]`,
			patch:    `[{"op":"add","path":"/0","value":"x"}]`,
			expected: `["x"]`,
		},
		{
			name:        "add past the end of an array",
			doc:         `[1,2]`,
			patch:       `[{"op":"add","path":"/3","value":"x"}]`,
			expectedErr: "out of bounds",
			kind:        jsondelta.IndexOutOfBounds,
		},
		{
			name:     "append with dash",
			doc:      `{"foo":[1,2]}`,
			patch:    `[{"op":"add","path":"/foo/-","value":3}]`,
			expected: `{"foo":[1,2,3]}`,
		},
		{
			name:     "add onto a null member",
			doc:      `{"foo":null}`,
			patch:    `[{"op":"add","path":"/foo","value":1}]`,
			expected: `{"foo":1}`,
		},
		{
			name:        "add onto an existing member",
			doc:         `{"foo":1}`,
			patch:       `[{"op":"add","path":"/foo","value":2}]`,
			expectedErr: "already holds a value",
			kind:        jsondelta.KeyConflict,
		},
		{
			name:        "add below a missing parent",
			doc:         `{"foo":{}}`,
			patch:       `[{"op":"add","path":"/bar/baz","value":1}]`,
			expectedErr: "does not exist",
			kind:        jsondelta.PathNotFound,
		},
		{
			name:        "add below a primitive",
			doc:         `{"foo":1}`,
			patch:       `[{"op":"add","path":"/foo/bar","value":1}]`,
			expectedErr: `parent "/foo" is not a container`,
			kind:        jsondelta.PathNotFound,
		},
		{
			name:     "replace the root",
			doc:      `{"foo":1}`,
			patch:    `[{"op":"replace","path":"","value":[1]}]`,
			expected: `[1]`,
		},
		{
			name:        "replace a missing member",
			doc:         `{"a":1}`,
			patch:       `[{"op":"replace","path":"/b","value":2}]`,
			expectedErr: `path "/b" does not exist`,
			kind:        jsondelta.PathNotFound,
		},
		{
			name:        "replace past the end of an array",
			doc:         `[1]`,
			patch:       `[{"op":"replace","path":"/1","value":2}]`,
			expectedErr: "out of bounds",
			kind:        jsondelta.IndexOutOfBounds,
		},
		{
			name:        "remove a missing member",
			doc:         `{"a":1}`,
			patch:       `[{"op":"remove","path":"/b"}]`,
			expectedErr: "does not exist",
			kind:        jsondelta.PathNotFound,
		},
		{
			name:     "escaped member names",
			doc:      `{"a/b":1,"m~n":2}`,
			patch:    `[{"op":"move","from":"/a~1b","path":"/m~0n"}]`,
			expected: `{"m~n":1}`,
		},
		{
			name:     "move to itself",
			doc:      `{"a":1}`,
			patch:    `[{"op":"move","from":"/a","path":"/a"}]`,
			expected: `{"a":1}`,
		},
		{
			name:     "move onto itself at a missing path",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"move","from":"/nope","path":"/nope"}]`,
			expected: `{"foo":"bar"}`,
		},
		{
			name:     "copy onto itself at a missing path",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"copy","from":"/nope/0","path":"/nope/0"}]`,
			expected: `{"foo":"bar"}`,
		},
		{
			name:        "move onto itself with a malformed path",
			doc:         `{"foo":"bar"}`,
			patch:       `[{"op":"move","from":"nope","path":"nope"}]`,
			expectedErr: "malformed path",
			kind:        jsondelta.InvalidPointer,
		},
		{
			name:        "move without from",
			doc:         `{"a":1}`,
			patch:       `[{"op":"move","path":"/b"}]`,
			expectedErr: "without a from path",
			kind:        jsondelta.MissingFromPath,
		},
		{
			name:        "move from a missing path",
			doc:         `[1]`,
			patch:       `[{"op":"move","from":"/1","path":"/0"}]`,
			expectedErr: "from path '/1' does not exist",
			kind:        jsondelta.MissingFromPath,
		},
		{
			name:        "move into its own child",
			doc:         `{"a":{"b":1}}`,
			patch:       `[{"op":"move","from":"/a","path":"/a/c"}]`,
			expectedErr: "is a parent of",
			kind:        jsondelta.MissingFromPath,
		},
		{
			name:     "copy into its own child",
			doc:      `{"a":{"b":1}}`,
			patch:    `[{"op":"copy","from":"/a","path":"/a/c"}]`,
			expected: `{"a":{"b":1,"c":{"b":1}}}`,
		},
		{
			name:     "copy does not alias",
			doc:      `{"a":{"b":1}}`,
			patch:    `[{"op":"copy","from":"/a","path":"/c"},{"op":"add","path":"/c/d","value":2}]`,
			expected: `{"a":{"b":1},"c":{"b":1,"d":2}}`,
		},
		{
			name:     "test then replace",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"test","path":"/foo","value":"bar"},{"op":"replace","path":"/foo","value":"baz"}]`,
			expected: `{"foo":"baz"}`,
		},
		{
			name:        "test a missing path",
			doc:         `{"foo":"bar"}`,
			patch:       `[{"op":"test","path":"/baz","value":"bar"}]`,
			expectedErr: "test failed",
			kind:        jsondelta.TestFailed,
		},
		{
			name:     "test a null member",
			doc:      `{"foo":null}`,
			patch:    `[{"op":"test","path":"/foo","value":null}]`,
			expected: `{"foo":null}`,
		},
		{
			name:        "unsupported operation",
			doc:         `{}`,
			patch:       `[{"op":"missing","path":"/a"}]`,
			expectedErr: "unsupported patch operation: missing",
			kind:        jsondelta.UnsupportedOperation,
		},
		{
			name:        "malformed pointer",
			doc:         `{}`,
			patch:       `[{"op":"add","path":"a","value":1}]`,
			expectedErr: "malformed path",
			kind:        jsondelta.InvalidPointer,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var doc any
			json.Unmarshal([]byte(tc.doc), &doc)

			var patch jsondelta.Patch
			json.Unmarshal([]byte(tc.patch), &patch)

			result, err := jsondelta.Apply(doc, patch)

			if tc.expectedErr != "" {
				if err == nil {
					t.Errorf("expected error containing %q, but got none", tc.expectedErr)
				} else if !strings.Contains(err.Error(), tc.expectedErr) {
					t.Errorf("expected error containing %q, but got %q", tc.expectedErr, err.Error())
				}
				if tc.kind != "" && !jsondelta.IsKind(err, tc.kind) {
					t.Errorf("expected error of kind %s, got %v", tc.kind, err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			var expected any
			json.Unmarshal([]byte(tc.expected), &expected)

			if !reflect.DeepEqual(result, expected) {
				resBytes, _ := json.Marshal(result)
				expBytes, _ := json.Marshal(expected)
				t.Errorf("unexpected result\n\tgot: %s\n\twant: %s", resBytes, expBytes)
			}
		})
	}
}

func TestApplyStream(t *testing.T) {
	doc := `{"a":"b","c":"d"}`
	patch := `[{"op":"add","path":"/b","value":"e"}]`
	expected := `{"a":"b","b":"e","c":"d"}`

	reader := strings.NewReader(doc)
	var writer bytes.Buffer

	var patchOps jsondelta.Patch
	json.Unmarshal([]byte(patch), &patchOps)

	err := jsondelta.ApplyStream(reader, &writer, patchOps)
	if err != nil {
		t.Fatalf("ApplyStream() unexpected error: %v", err)
	}

	// The JSON encoder adds a newline, so we trim it for comparison
	result := strings.TrimSpace(writer.String())

	var resultJSON, expectedJSON any
	json.Unmarshal([]byte(result), &resultJSON)
	json.Unmarshal([]byte(expected), &expectedJSON)

	if !reflect.DeepEqual(resultJSON, expectedJSON) {
		t.Errorf("ApplyStream() result mismatch:\ngot:  %s\nwant: %s", result, expected)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	doc := map[string]any{"a": []any{1.0, 2.0}, "b": map[string]any{"c": "d"}}
	patch := jsondelta.Patch{
		{Op: jsondelta.Add, Path: "/a/0", Value: 0.0},
		{Op: jsondelta.Remove, Path: "/b/c"},
	}

	if _, err := jsondelta.Apply(doc, patch); err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	want := map[string]any{"a": []any{1.0, 2.0}, "b": map[string]any{"c": "d"}}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Apply() mutated its input: %v", doc)
	}
}

func TestApply_RemoveRoot(t *testing.T) {
	result, err := jsondelta.Apply(map[string]any{"a": 1.0}, jsondelta.Patch{{Op: jsondelta.Remove, Path: ""}})
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if result != jsondelta.Absent {
		t.Errorf("Apply() = %v, want Absent", result)
	}
}

func TestApply_Flags(t *testing.T) {
	testCases := []struct {
		name     string
		doc      string
		patch    string
		flags    []jsondelta.ApplyFlag
		expected string
		kind     jsondelta.ErrorKind
	}{
		{
			name:     "force ignores failed test",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"test","path":"/foo","value":"nope"},{"op":"replace","path":"/foo","value":"baz"}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.Force},
			expected: `{"foo":"baz"}`,
		},
		{
			name:     "force creates missing parents",
			doc:      `{}`,
			patch:    `[{"op":"add","path":"/a/b/c","value":1}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.Force},
			expected: `{"a":{"b":{"c":1}}}`,
		},
		{
			name:     "force lets add overwrite",
			doc:      `{"a":1}`,
			patch:    `[{"op":"add","path":"/a","value":2}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.Force},
			expected: `{"a":2}`,
		},
		{
			name:     "force lets replace create",
			doc:      `{"a":1}`,
			patch:    `[{"op":"replace","path":"/b","value":2}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.Force},
			expected: `{"a":1,"b":2}`,
		},
		{
			name:     "skip conflicts skips the next operation only",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"test","path":"/foo","value":"nope"},{"op":"replace","path":"/foo","value":"baz"},{"op":"add","path":"/x","value":1}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.SkipConflicts},
			expected: `{"foo":"bar","x":1}`,
		},
		{
			name:  "skip conflicts keeps other errors fatal",
			doc:   `{"foo":"bar"}`,
			patch: `[{"op":"remove","path":"/nope"}]`,
			flags: []jsondelta.ApplyFlag{jsondelta.SkipConflicts},
			kind:  jsondelta.PathNotFound,
		},
		{
			name:     "ignore errors carries on",
			doc:      `{"foo":"bar"}`,
			patch:    `[{"op":"remove","path":"/nope"},{"op":"test","path":"/foo","value":1},{"op":"add","path":"/x","value":1}]`,
			flags:    []jsondelta.ApplyFlag{jsondelta.IgnoreErrors},
			expected: `{"foo":"bar","x":1}`,
		},
		{
			name:  "ignore errors keeps unsupported operations fatal",
			doc:   `{}`,
			patch: `[{"op":"frobnicate","path":"/x"}]`,
			flags: []jsondelta.ApplyFlag{jsondelta.IgnoreErrors},
			kind:  jsondelta.UnsupportedOperation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustUnmarshal(t, tc.doc)
			var patch jsondelta.Patch
			if err := json.Unmarshal([]byte(tc.patch), &patch); err != nil {
				t.Fatalf("unmarshal patch: %v", err)
			}

			result, err := jsondelta.Apply(doc, patch,
				jsondelta.WithApplyFlags(tc.flags...),
				jsondelta.WithLogger(testr.New(t)))
			if tc.kind != "" {
				if !jsondelta.IsKind(err, tc.kind) {
					t.Fatalf("expected error of kind %s, got %v", tc.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(mustUnmarshal(t, tc.expected), result); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	_, err := jsondelta.Apply(map[string]any{"foo": "bar"}, jsondelta.Patch{
		{Op: jsondelta.Test, Path: "/foo", Value: "baz"},
	})
	if !errors.Is(err, jsondelta.ErrTestFailed) {
		t.Fatalf("errors.Is(%v, ErrTestFailed) = false", err)
	}
	if errors.Is(err, jsondelta.ErrPathNotFound) {
		t.Fatalf("errors.Is(%v, ErrPathNotFound) = true", err)
	}
	var pe *jsondelta.Error
	if !errors.As(err, &pe) {
		t.Fatalf("errors.As(%v) failed", err)
	}
	if pe.Index != 0 || pe.Op != jsondelta.Test || pe.Path != "/foo" {
		t.Errorf("unexpected error details: %+v", pe)
	}
}

func TestOperation_MarshalJSON(t *testing.T) {
	patch := jsondelta.Patch{
		{Op: jsondelta.Add, Path: "/a", Value: nil},
		{Op: jsondelta.Remove, Path: "/b"},
		{Op: jsondelta.Move, From: "/c", Path: "/d"},
		{Op: jsondelta.Test, Path: "/e", Value: false},
	}
	got, err := json.Marshal(patch)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `[{"op":"add","path":"/a","value":null},{"op":"remove","path":"/b"},{"op":"move","path":"/d","from":"/c"},{"op":"test","path":"/e","value":false}]`
	if string(got) != want {
		t.Errorf("Marshal()\n\tgot: %s\n\twant: %s", got, want)
	}
}

func mustUnmarshal(t testing.TB, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}
