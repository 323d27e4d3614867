package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("broken pipe")
	err := Wrap(ErrEncodeSink, "encode", "write frame", base)
	if !errors.Is(err, ErrEncodeSink) {
		t.Fatalf("expected ErrEncodeSink tag, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsToValidation(t *testing.T) {
	err := Wrap(nil, "probe", "parse output", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation default, got %v", err)
	}
}

func TestWrapDetailOmitsEmptyParts(t *testing.T) {
	err := Wrap(ErrConfiguration, "", "", nil)
	want := "configuration error: pipeline failure"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestHintCoversAllClasses(t *testing.T) {
	for _, sentinel := range []error{ErrConfiguration, ErrDecodeStream, ErrEncodeSink, ErrCompositor, ErrTimeout} {
		if Hint(Wrap(sentinel, "stage", "op", nil)) == "" {
			t.Errorf("no hint for %v", sentinel)
		}
	}
	if Hint(errors.New("other")) != "" {
		t.Error("unexpected hint for unclassified error")
	}
}
