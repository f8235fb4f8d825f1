package db

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	s, err := New(MEMORY, "")
	if err != nil || s == nil {
		t.Fatalf("memory store err:%v", err)
	}
	if err = Close(MEMORY, s); err != nil {
		t.Errorf("Close err:%v", err)
	}
	if _, err = New("sqlite", "file.db"); !errors.Is(err, ErrBadType) {
		t.Errorf("unknown type err:%v", err)
	}
}
