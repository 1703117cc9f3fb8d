package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tarkyaio/tarka/internal/models"
)

// CaseKey computes the stable identity key a run's case attaches to,
// grounded on spec.md §4.4: "compute case_key from stable identity
// (cluster, namespace, workload or service)". Independent of the dedupe
// key (which is time-bucketed); a case_key is stable across the case's
// entire open lifetime.
func CaseKey(family string, id IdentityFields) string {
	payload := map[string]any{
		"v":      1,
		"family": family,
	}
	switch {
	case id.WorkloadName != "":
		payload["cluster"] = id.Cluster
		payload["namespace"] = id.Namespace
		payload["workload_kind"] = id.WorkloadKind
		payload["workload_name"] = jobNamePrefix(id.WorkloadKind, id.WorkloadName)
	case id.Service != "":
		payload["cluster"] = id.Cluster
		payload["service"] = id.Service
	default:
		payload["cluster"] = id.Cluster
		payload["namespace"] = id.Namespace
	}
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte("{}")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// generatedJobSuffix matches Kubernetes-Job-style generated name suffixes:
// "<prefix>-<digits>-<random>" (CronJob-spawned Jobs) so that two runs of
// the same recurring Job collapse to the same case identity instead of
// minting a new case every invocation (spec.md §4.4 "Similarity query").
var generatedJobSuffix = regexp.MustCompile(`-\d{8,10}(-[a-z0-9]{5})?$`)

func jobNamePrefix(workloadKind, workloadName string) string {
	if !strings.EqualFold(workloadKind, "job") && !strings.EqualFold(workloadKind, "cronjob") {
		return workloadName
	}
	if loc := generatedJobSuffix.FindStringIndex(workloadName); loc != nil {
		return workloadName[:loc[0]]
	}
	return workloadName
}

// Incidentize attaches a freshly completed run to an existing open case or
// creates a new one, per spec.md §4.4. It returns the case and a short
// match-reason breadcrumb.
func Incidentize(ctx context.Context, s Store, now time.Time, family string, target models.Target) (*CaseMatchResult, error) {
	id := identityFrom(target)
	key := CaseKey(family, id)

	existing, err := s.GetOpenCaseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		reason := "exact_workload"
		switch {
		case id.WorkloadName == "" && id.Service != "":
			reason = "service_only"
		case strings.EqualFold(id.WorkloadKind, "job") || strings.EqualFold(id.WorkloadKind, "cronjob"):
			reason = "prefix_job_name"
		}
		return &CaseMatchResult{Case: existing, Reason: reason}, nil
	}

	c := &models.Case{
		CaseID:    uuid.NewString(),
		CaseKey:   key,
		Status:    models.CaseOpen,
		CreatedAt: now,
		UpdatedAt: now,
		Family:    strPtr(family),
	}
	if id.Cluster != "" {
		c.Cluster = strPtr(id.Cluster)
	}
	if id.Namespace != "" {
		c.Namespace = strPtr(id.Namespace)
	}
	if id.WorkloadKind != "" {
		c.WorkloadKind = strPtr(id.WorkloadKind)
	}
	if id.WorkloadName != "" {
		c.WorkloadName = strPtr(id.WorkloadName)
		tt := "workload"
		c.TargetType = &tt
	}
	if id.Service != "" {
		c.Service = strPtr(id.Service)
		if c.TargetType == nil {
			tt := "service"
			c.TargetType = &tt
		}
	}
	if err := s.CreateCase(ctx, c); err != nil {
		return nil, err
	}
	return &CaseMatchResult{Case: c, Reason: "new_case"}, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return s
}
