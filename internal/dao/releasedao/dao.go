// Package releasedao stores release history records in DynamoDB. Each record
// tracks one run of the deploy pipeline for a repo/env pair.
package releasedao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/savaki/gox/slicex"
)

const latest = "latest"

// TableName returns the release history table name for an environment
func TableName(env string) string {
	return fmt.Sprintf("%s-shipway-releases", env)
}

// PK represents a DynamoDB partition key in format {repo}/{env}
// Example: name-tracker/prod
type PK string

// NewPK creates a new partition key from repo and env
func NewPK(repo, env string) PK {
	return PK(fmt.Sprintf("%s/%s", repo, env))
}

// ParsePK parses a partition key into its repo and env components
func ParsePK(pk PK) (repo, env string, err error) {
	s := string(pk)
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid PK format: %s, expected {repo}/{env}", s)
	}
	return parts[0], parts[1], nil
}

// String returns the string representation of the partition key
func (pk PK) String() string {
	return string(pk)
}

// ID represents a release ID in format {repo}/{env}:{ksuid}
// Example: name-tracker/prod:2HFj3kLmNoPqRsTuVwXy
type ID string

func (id ID) String() string {
	return string(id)
}

// ParseID parses a release ID into its partition key (pk) and sort key (sk)
func ParseID(id ID) (pk PK, sk string, err error) {
	s := string(id)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid release ID format: %s, expected {repo}/{env}:{ksuid}", s)
	}
	return PK(parts[0]), parts[1], nil
}

// NewID constructs an ID from partition key and sort key
func NewID(pk PK, sk string) ID {
	return ID(fmt.Sprintf("%s:%s", pk, sk))
}

// Status represents the current status of a release
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// Record represents a release record in DynamoDB
type Record struct {
	PK           PK      `ddb:"hash" dynamodbav:"pk"`  // {repo}/{env} - DynamoDB partition key
	SK           string  `ddb:"range" dynamodbav:"sk"` // KSUID - DynamoDB sort key
	ID           ID      `dynamodbav:"id,omitempty"`   // ID is only used for latest entries
	Repo         string  `dynamodbav:"repo,omitempty"` // ECR repository name
	Env          string  `dynamodbav:"env,omitempty"`  // Environment name (dev, staging, prod)
	Cluster      string  `dynamodbav:"cluster,omitempty"`
	Service      string  `dynamodbav:"ecs_service,omitempty"`
	ImageURI     string  `dynamodbav:"image_uri,omitempty"` // Fully qualified pushed image reference
	Tag          string  `dynamodbav:"tag,omitempty"`
	DeploymentID string  `dynamodbav:"deployment_id,omitempty"` // ECS deployment created by the redeploy
	Status       Status  `dynamodbav:"status,omitempty"`
	ErrorMsg     *string `dynamodbav:"error_msg,omitempty"`
	CreatedAt    int64   `dynamodbav:"created_at,omitempty"`  // Unix epoch timestamp of creation
	FinishedAt   *int64  `dynamodbav:"finished_at,omitempty"` // Unix epoch timestamp of completion
	UpdatedAt    int64   `dynamodbav:"updated_at,omitempty"`  // Unix epoch timestamp of last update
}

// GetID returns the full release ID in format: {repo}/{env}:{ksuid}
func (r *Record) GetID() ID {
	if r.ID != "" {
		return r.ID
	}
	return NewID(r.PK, r.SK)
}

// CreateInput contains the fields needed to create a new release record
type CreateInput struct {
	Repo     string // ECR repository name
	Env      string // Environment (dev, staging, prod)
	SK       string // KSUID sort key
	Cluster  string // ECS cluster name
	Service  string // ECS service name
	ImageURI string // Fully qualified remote image reference
	Tag      string // Image tag
}

// UpdateInput contains the fields that can be updated on a release record
type UpdateInput struct {
	PK           PK      // Partition key (repo/env)
	SK           string  // Sort key (KSUID)
	Status       *Status // New status
	DeploymentID *string // ECS deployment ID (optional)
	ErrorMsg     *string // Error message (optional)
}

// DAO provides data access operations for release records
type DAO struct {
	db    *ddb.DDB
	table *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		db:    db,
		table: table,
	}
}

// Create creates a new release record with initial status PENDING
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	pk := NewPK(input.Repo, input.Env)
	now := time.Now().Unix()

	record := Record{
		PK:        pk,
		SK:        input.SK,
		Repo:      input.Repo,
		Env:       input.Env,
		Cluster:   input.Cluster,
		Service:   input.Service,
		ImageURI:  input.ImageURI,
		Tag:       input.Tag,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := d.table.Put(&record).RunWithContext(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to create release record: %w", err)
	}

	return record, nil
}

// Find retrieves a release record by ID
func (d *DAO) Find(ctx context.Context, id ID) (Record, error) {
	pk, sk, err := ParseID(id)
	if err != nil {
		return Record{}, err
	}

	var record Record
	err = d.table.Get(pk.String()).
		Range(sk).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "item not found") || strings.Contains(errStr, "ItemNotFound") {
			return Record{}, fmt.Errorf("release record not found: %s", id)
		}
		return Record{}, fmt.Errorf("failed to find release record: %w", err)
	}

	if record.PK == "" && record.SK == "" {
		return Record{}, fmt.Errorf("release record not found: %s", id)
	}

	return record, nil
}

// Delete removes a release record by ID
func (d *DAO) Delete(ctx context.Context, id ID) error {
	pk, sk, err := ParseID(id)
	if err != nil {
		return err
	}

	err = d.table.Delete(pk).
		Range(sk).
		RunWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete release record: %w", err)
	}

	return nil
}

// UpdateStatus updates the status of a release record and maintains a
// "latest" magic record with pk=latest/{env} and sk={repo}/{env}, so the
// most recent release per repo can be queried without scanning history.
func (d *DAO) UpdateStatus(ctx context.Context, input UpdateInput) error {
	if input.Status == nil {
		return fmt.Errorf("status is required")
	}

	now := time.Now().Unix()

	update := d.table.Update(input.PK).
		Range(input.SK).
		Set("#Status = ?", string(*input.Status)).
		Set("#UpdatedAt = ?", now)

	// Terminal states record their completion time.
	if *input.Status == StatusSuccess || *input.Status == StatusFailed {
		update = update.Set("#FinishedAt = ?", now)
	}
	if input.DeploymentID != nil {
		update = update.Set("#DeploymentID = ?", *input.DeploymentID)
	}
	if input.ErrorMsg != nil {
		update = update.Set("#ErrorMsg = ?", *input.ErrorMsg)
	}

	repo, env, err := ParsePK(input.PK)
	if err != nil {
		return fmt.Errorf("failed to parse PK: %w", err)
	}

	latestRecord := &Record{
		PK:        NewPK(latest, env),
		SK:        input.PK.String(),
		ID:        NewID(input.PK, input.SK),
		Repo:      repo,
		Env:       env,
		Status:    *input.Status,
		UpdatedAt: now,
	}
	put := d.table.Put(latestRecord)

	if _, err := d.db.TransactWriteItemsWithContext(ctx, update, put); err != nil {
		return err
	}

	return nil
}

// Query returns all releases for a given repo/env partition key
func (d *DAO) Query(ctx context.Context, pk PK) ([]Record, error) {
	var records []Record

	err := d.table.Query("#PK = ?", pk.String()).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}

	return records, nil
}

// QueryByRepoEnv returns all releases for a given repository and environment
func (d *DAO) QueryByRepoEnv(ctx context.Context, repo, env string) ([]Record, error) {
	return d.Query(ctx, NewPK(repo, env))
}

// QueryLatestReleases returns the latest release for each repo in the given
// environment, most recently updated first.
func (d *DAO) QueryLatestReleases(ctx context.Context, env string) ([]Record, error) {
	pk := NewPK(latest, env)
	var records []Record

	err := d.table.Query("#PK = ?", pk).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest releases: %w", err)
	}

	for i := 0; i < len(records)-1; i++ {
		for j := i + 1; j < len(records); j++ {
			if records[j].UpdatedAt > records[i].UpdatedAt {
				records[i], records[j] = records[j], records[i]
			}
		}
	}

	ids := slicex.Map(records, GetID)

	releases := make([]Record, 0, len(ids))
	for _, id := range ids {
		record, err := d.Find(ctx, id)
		if err != nil {
			// Skip latest pointers whose history record was deleted.
			continue
		}
		releases = append(releases, record)
	}

	return releases, nil
}

// GetID extracts the ID from a record, for use with slicex.Map
func GetID(r Record) ID {
	return r.GetID()
}
