package storage

import (
	"context"
	"fmt"
	"sync"
)

type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore is an in-process ObjectStore for tests and local runs.
type MemoryStore struct {
	mu        sync.Mutex
	publicURL string
	buckets   map[string]map[string]Object
	policies  map[string]string

	// Fail, when set, is consulted before every operation.
	Fail func(op, bucket, name string) error
}

func NewMemoryStore(publicURL string) *MemoryStore {
	return &MemoryStore{
		publicURL: publicURL,
		buckets:   make(map[string]map[string]Object),
		policies:  make(map[string]string),
	}
}

func (s *MemoryStore) fail(op, bucket, name string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, bucket, name)
}

func (s *MemoryStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	if err := s.fail("BucketExists", bucket, ""); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *MemoryStore) MakeBucket(_ context.Context, bucket string) error {
	if err := s.fail("MakeBucket", bucket, ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]Object)
	}
	return nil
}

func (s *MemoryStore) SetBucketPolicy(_ context.Context, bucket, policy string) error {
	if err := s.fail("SetBucketPolicy", bucket, ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[bucket] = policy
	return nil
}

func (s *MemoryStore) PutObject(_ context.Context, bucket, name string, data []byte, contentType string) error {
	if err := s.fail("PutObject", bucket, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %q does not exist", bucket)
	}
	objects[name] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (s *MemoryStore) RemoveObject(_ context.Context, bucket, name string) error {
	if err := s.fail("RemoveObject", bucket, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], name)
	return nil
}

func (s *MemoryStore) PublicURL() string {
	return s.publicURL
}

// Object returns a stored object.
func (s *MemoryStore) Object(bucket, name string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.buckets[bucket][name]
	return obj, ok
}

// Policy returns the policy applied to bucket, if any.
func (s *MemoryStore) Policy(bucket string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[bucket]
	return p, ok
}

// Len reports how many objects bucket holds.
func (s *MemoryStore) Len(bucket string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets[bucket])
}
