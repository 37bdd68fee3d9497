// Package storage is the bucket-oriented blob store for image bytes.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// MakeBucket treats an already existing bucket as success.
	MakeBucket(ctx context.Context, bucket string) error
	SetBucketPolicy(ctx context.Context, bucket, policy string) error
	PutObject(ctx context.Context, bucket, name string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, bucket, name string) error
	// PublicURL is the base URL objects are served from.
	PublicURL() string
}

type policyStatement struct {
	Action    []string `json:"Action"`
	Effect    string   `json:"Effect"`
	Principal string   `json:"Principal"`
	Resource  []string `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicBucketPolicy allows anonymous get, put and delete on every object
// in bucket.
func PublicBucketPolicy(bucket string) string {
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Action:    []string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject"},
			Effect:    "Allow",
			Principal: "*",
			Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
		}},
	}
	data, _ := json.Marshal(policy)
	return string(data)
}

// ObjectURL resolves a bucket-relative object path against the public base
// URL.
func ObjectURL(publicURL, bucket, name string) (string, error) {
	return url.JoinPath(publicURL, bucket, name)
}
