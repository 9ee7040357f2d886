package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/inkwell/internal/fileio"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "op only",
			err:      &OperationError{Op: "save"},
			expected: "save",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "open", Target: "/tmp/notes.txt"},
			expected: "open /tmp/notes.txt",
		},
		{
			name:     "full error chain",
			err:      &OperationError{Op: "close", Target: "Untitled", Context: "forced", Err: ErrUnsavedChanges},
			expected: "close Untitled (forced): unsaved changes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext_Nil(t *testing.T) {
	var err *OperationError
	if err.WithContext("context") != nil {
		t.Error("expected nil result for nil receiver")
	}
}

func TestOperationError_Is(t *testing.T) {
	fe := &fileio.FileError{Op: "read", Path: "/x", Kind: fileio.KindNotFound, Err: fileio.ErrNotFound}
	err := NewOperationError("open", "/x", fe)

	if !errors.Is(err, fileio.ErrNotFound) {
		t.Error("expected errors.Is to reach the file error kind")
	}
	if !errors.Is(err, err) {
		t.Error("expected errors.Is to match same instance")
	}
	if errors.Is(err, NewOperationError("open", "/x", fe)) {
		t.Error("a different OperationError instance must not match")
	}

	var target *fileio.FileError
	if !errors.As(fmt.Errorf("cli: %w", err), &target) || target.Path != "/x" {
		t.Error("expected errors.As to find the FileError")
	}
}

func TestOperationError_Is_Nil(t *testing.T) {
	var err *OperationError
	if err.Is(errors.New("any")) {
		t.Error("expected Is() to return false for nil receiver")
	}
	if err.Unwrap() != nil {
		t.Error("expected nil from Unwrap() on nil receiver")
	}
}

func TestErrorList(t *testing.T) {
	var el ErrorList
	if el.AsError() != nil {
		t.Error("expected nil for empty list")
	}

	el.Add(ErrEditorClosed)
	el.Add(nil)
	if el.Len() != 1 || el.Error() != "editor closed" {
		t.Errorf("unexpected list %d %q", el.Len(), el.Error())
	}

	el.Add(ErrDocumentNotFound)
	if el.Error() != "2 errors: first: editor closed" {
		t.Errorf("unexpected message %q", el.Error())
	}

	err := el.AsError()
	if !errors.Is(err, ErrDocumentNotFound) || !errors.Is(err, ErrEditorClosed) {
		t.Error("expected errors.Is to see every collected error")
	}

	errs := el.Errors()
	errs[0] = nil
	if el.Errors()[0] == nil {
		t.Error("expected Errors() to return a copy")
	}
}

func TestErrorList_Nil(t *testing.T) {
	var el *ErrorList
	if el.Error() != "" || el.Len() != 0 || el.HasErrors() || el.Errors() != nil {
		t.Error("nil list must behave as empty")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrDocumentNotFound,
		ErrDocumentAlreadyOpen,
		ErrUnsavedChanges,
		ErrEditorClosed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
