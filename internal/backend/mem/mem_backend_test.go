package mem_test

import (
	"context"
	"io"
	"testing"

	"github.com/restic/vaultcheck/internal/backend"
	"github.com/restic/vaultcheck/internal/backend/mem"
	"github.com/restic/vaultcheck/internal/test"
)

func TestPutLoadRemove(t *testing.T) {
	be := mem.New(false)

	be.Put(backend.BlobFile, "aaaa", []byte("hello world"))

	var got []byte
	err := be.Load(context.Background(), backend.BlobFile, "aaaa", func(rd io.Reader) error {
		var err error
		got, err = io.ReadAll(rd)
		return err
	})
	test.OK(t, err)
	test.Equals(t, "hello world", string(got))

	test.OK(t, be.Remove(context.Background(), backend.BlobFile, "aaaa"))

	err = be.Load(context.Background(), backend.BlobFile, "aaaa", func(io.Reader) error { return nil })
	test.Assert(t, be.IsNotExist(err), "expected IsNotExist after Remove, got %v", err)
}

func TestList(t *testing.T) {
	be := mem.New(false)
	be.Put(backend.BlobFile, "aaaa", []byte("a"))
	be.Put(backend.BlobFile, "bbbb", []byte("bb"))
	be.Put(backend.SnapshotFile, "cccc", []byte("ccc"))

	sizes := make(map[string]int64)
	err := be.List(context.Background(), backend.BlobFile, func(e backend.Entry) error {
		sizes[e.Name] = e.Size
		return nil
	})
	test.OK(t, err)
	test.Equals(t, map[string]int64{"aaaa": 1, "bbbb": 2}, sizes)
}

func TestCorrupt(t *testing.T) {
	be := mem.New(false)
	be.Put(backend.BlobFile, "aaaa", []byte("hello world"))
	be.Corrupt(backend.BlobFile, "aaaa")

	var got []byte
	err := be.Load(context.Background(), backend.BlobFile, "aaaa", func(rd io.Reader) error {
		var err error
		got, err = io.ReadAll(rd)
		return err
	})
	test.OK(t, err)
	test.Assert(t, string(got) != "hello world", "Corrupt did not change the stored content")
}

func TestRequiresNetwork(t *testing.T) {
	test.Assert(t, mem.New(true).RequiresNetwork(), "expected RequiresNetwork() == true")
	test.Assert(t, !mem.New(false).RequiresNetwork(), "expected RequiresNetwork() == false")
}
