package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/awsclient"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

// historicalFallbackWindow widens the lookback when a job's pods have
// already been garbage-collected by the time the investigation runs.
const historicalFallbackWindow = 24 * time.Hour

// JobFailedModule retimes the investigation window to the job's lifetime,
// locates job pods by the job-name label selector, always collects Job
// resource events even when pods are missing, and optionally validates
// AWS resources (S3 bucket, IRSA role trust/policies) when the logs hint at
// S3/IAM issues (spec.md §4.2 job_failed row).
type JobFailedModule struct {
	Clusters *k8sclient.Registry
	AWS      *awsclient.Registry
	AWSRegion func(cluster string) string
}

func (m *JobFailedModule) Name() string { return "job_failed" }

func (m *JobFailedModule) Applies(family string) bool { return family == "job_failed" }

func (m *JobFailedModule) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Target.Namespace == "" || inv.Target.WorkloadName == "" {
		return
	}
	cli, err := m.Clusters.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(m.Name(), err)
		return
	}

	var job *batchv1.Job
	err = cli.Do(ctx, func(ctx context.Context) error {
		j, err := cli.Clientset.BatchV1().Jobs(inv.Target.Namespace).Get(ctx, inv.Target.WorkloadName, metav1.GetOptions{})
		if err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		inv.AddError(m.Name()+".get_job", err)
	} else if job != nil && job.Status.StartTime != nil {
		// Adjust window to [job.start_time, alert_time].
		inv.TimeWindow.StartTime = job.Status.StartTime.Time
		inv.TimeWindow.EndTime = time.Now()
		inv.TimeWindow.Window = inv.TimeWindow.EndTime.Sub(inv.TimeWindow.StartTime)
	}

	selector := fmt.Sprintf("job-name=%s", inv.Target.WorkloadName)
	var pods *corev1.PodList
	err = cli.Do(ctx, func(ctx context.Context) error {
		p, err := cli.Clientset.CoreV1().Pods(inv.Target.Namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return err
		}
		pods = p
		return nil
	})

	ev := inv.Evidence.K8s
	if ev == nil {
		ev = &models.K8sEvidence{}
	}

	found := false
	if err != nil {
		inv.AddError(m.Name()+".list_pods", err)
	} else if len(pods.Items) > 0 {
		found = true
		pod := pods.Items[0]
		inv.Target.Pod = pod.Name
		ev.PodInfo = map[string]any{
			"phase": string(pod.Status.Phase),
			"node":  pod.Spec.NodeName,
		}
		if logErr := collectPodLogs(ctx, cli, inv, false); logErr != nil {
			inv.AddError(m.Name()+".logs", logErr)
		}
	}
	boolFound := found
	ev.JobPodsFound = &boolFound

	// Always collect Job resource events even when pods are missing.
	jobEvents, err := listJobEvents(ctx, cli, inv.Target.Namespace, inv.Target.WorkloadName)
	if err != nil {
		inv.AddError(m.Name()+".job_events", err)
	} else {
		ev.JobEvents = jobEvents
	}
	inv.Evidence.K8s = ev

	if !found {
		// On zero live pods apply a historical fallback: mine the Job's own
		// SuccessfulCreate events for the pod names Kubernetes assigned and
		// try to recover their logs/events before they're fully reclaimed
		// (spec.md §4.2 job_failed row, §8 scenario S5).
		inv.Meta["job_failed_historical_fallback"] = true
		inv.Meta["job_failed_fallback_window"] = historicalFallbackWindow.String()
		if !m.historicalFallback(ctx, cli, inv, jobEvents) {
			inv.Meta["blocked_mode"] = "job_pods_not_found"
		}
	}

	m.maybeValidateAWS(ctx, inv)
}

// historicalFallback widens the search after a live job-pod listing returns
// zero results: the pods may already be garbage-collected by the time the
// investigation runs. It mines the Job's own "SuccessfulCreate" events for
// the pod names Kubernetes assigned, then tries to fetch each pod (if GC
// hasn't reclaimed it yet) for its logs and events. Returns true if any
// historical pod evidence was recovered (spec.md §4.2 job_failed row "on
// zero pods applies a historical fallback"; §8 S5 "parses any preserved
// logs via historical fallback").
func (m *JobFailedModule) historicalFallback(ctx context.Context, cli *k8sclient.Client, inv *models.Investigation, jobEvents []models.K8sEvent) bool {
	since := time.Now().Add(-historicalFallbackWindow)
	recovered := false

	for _, name := range historicalPodNames(jobEvents) {
		var pod *corev1.Pod
		getErr := cli.Do(ctx, func(ctx context.Context) error {
			p, err := cli.Clientset.CoreV1().Pods(inv.Target.Namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				return err
			}
			pod = p
			return nil
		})
		if getErr != nil || pod == nil {
			continue // already garbage-collected; nothing left to recover here
		}

		inv.Target.Pod = pod.Name
		if ev := inv.Evidence.K8s; ev != nil && ev.PodInfo == nil {
			ev.PodInfo = map[string]any{
				"phase": string(pod.Status.Phase),
				"node":  pod.Spec.NodeName,
			}
		}
		if logErr := collectPodLogs(ctx, cli, inv, false); logErr != nil {
			inv.AddError(m.Name()+".historical_logs", logErr)
		} else if inv.Evidence.Logs != nil {
			recovered = true
		}

		if events, err := listPodEvents(ctx, cli, inv.Target.Namespace, name); err != nil {
			inv.AddError(m.Name()+".historical_events", err)
		} else if recent := filterEventsSince(events, since); len(recent) > 0 {
			recovered = true
			if ev := inv.Evidence.K8s; ev != nil {
				ev.Events = append(ev.Events, recent...)
			}
		}
	}

	return recovered
}

// historicalPodNames extracts pod names Kubernetes assigned to the job from
// the job controller's "Created pod: <name>" SuccessfulCreate events.
func historicalPodNames(jobEvents []models.K8sEvent) []string {
	const prefix = "Created pod: "
	var names []string
	for _, e := range jobEvents {
		if e.Reason != "SuccessfulCreate" {
			continue
		}
		idx := strings.Index(e.Message, prefix)
		if idx < 0 {
			continue
		}
		if name := strings.TrimSpace(e.Message[idx+len(prefix):]); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func filterEventsSince(events []models.K8sEvent, since time.Time) []models.K8sEvent {
	out := make([]models.K8sEvent, 0, len(events))
	for _, e := range events {
		if e.LastSeen.IsZero() || e.LastSeen.After(since) {
			out = append(out, e)
		}
	}
	return out
}

func (m *JobFailedModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return jobFailedHypotheses(inv.Analysis.Features)
}

func listJobEvents(ctx context.Context, cli *k8sclient.Client, namespace, jobName string) ([]models.K8sEvent, error) {
	var events *corev1.EventList
	err := cli.Do(ctx, func(ctx context.Context) error {
		fieldSelector := fmt.Sprintf("involvedObject.name=%s,involvedObject.namespace=%s", jobName, namespace)
		e, err := cli.Clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{FieldSelector: fieldSelector})
		if err != nil {
			return err
		}
		events = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.K8sEvent, 0, len(events.Items))
	for _, e := range events.Items {
		out = append(out, models.K8sEvent{
			Type:     e.Type,
			Reason:   e.Reason,
			Message:  e.Message,
			Count:    e.Count,
			LastSeen: e.LastTimestamp.Time,
		})
	}
	return out, nil
}

// maybeValidateAWS runs optional AWS validation when the collected logs
// hint at an S3 or IAM problem: bucket existence/region, the pod's service
// account IRSA role annotation, and that role's trust policy/attached
// policies.
func (m *JobFailedModule) maybeValidateAWS(ctx context.Context, inv *models.Investigation) {
	if m.AWS == nil || inv.Evidence.Logs == nil {
		return
	}
	bucket, roleHint, sawIssue := scanLogsForAWSHints(inv.Evidence.Logs.Lines)
	if !sawIssue {
		return
	}

	region := "us-east-1"
	if m.AWSRegion != nil {
		if r := m.AWSRegion(inv.Target.Cluster); r != "" {
			region = r
		}
	}
	client, err := m.AWS.Get(ctx, region)
	if err != nil {
		inv.AddError(m.Name()+".aws_client", err)
		return
	}

	aw := &models.AWSEvidence{}
	if bucket != "" {
		exists, bucketRegion, err := client.BucketExists(ctx, bucket)
		if err != nil {
			inv.AddError(m.Name()+".bucket_exists", err)
		} else {
			aw.BucketExists = &exists
			aw.BucketRegion = bucketRegion
		}
	}

	roleARN := roleHint
	if roleARN == "" {
		roleARN = m.serviceAccountIRSARole(ctx, inv)
	}
	if roleARN != "" {
		aw.IRSARoleARN = roleARN
		roleName := roleNameFromARN(roleARN)
		if policy, err := client.RoleTrustPolicy(ctx, roleName); err != nil {
			inv.AddError(m.Name()+".iam_trust_policy", err)
		} else {
			aw.IAMTrustPolicy = policy
		}
		if policies, err := client.AttachedPolicyNames(ctx, roleName); err != nil {
			inv.AddError(m.Name()+".iam_policies", err)
		} else {
			aw.IAMPolicies = policies
		}
	}

	inv.Evidence.AWS = aw
}

func (m *JobFailedModule) serviceAccountIRSARole(ctx context.Context, inv *models.Investigation) string {
	cli, err := m.Clusters.Get(inv.Target.Cluster)
	if err != nil || inv.Target.Namespace == "" {
		return ""
	}
	var sa *corev1.ServiceAccount
	err = cli.Do(ctx, func(ctx context.Context) error {
		s, err := cli.Clientset.CoreV1().ServiceAccounts(inv.Target.Namespace).Get(ctx, "default", metav1.GetOptions{})
		if err != nil {
			return err
		}
		sa = s
		return nil
	})
	if err != nil || sa == nil {
		return ""
	}
	return sa.Annotations["eks.amazonaws.com/role-arn"]
}

func scanLogsForAWSHints(lines []models.LogLine) (bucket, roleARN string, sawIssue bool) {
	for _, l := range lines {
		lower := strings.ToLower(l.Message)
		if !sawIssue && (strings.Contains(lower, "s3") || strings.Contains(lower, "accessdenied") || strings.Contains(lower, "iam") || strings.Contains(lower, "no identity-based policy")) {
			sawIssue = true
		}
		if bucket == "" {
			if idx := strings.Index(lower, "bucket"); idx >= 0 {
				bucket = extractToken(l.Message, idx)
			}
		}
		if roleARN == "" && strings.Contains(l.Message, "arn:aws:iam::") {
			roleARN = extractARN(l.Message)
		}
	}
	return bucket, roleARN, sawIssue
}

func extractToken(msg string, afterIdx int) string {
	rest := msg[afterIdx:]
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return ""
	}
	return strings.Trim(fields[1], `"'.,:;`)
}

func extractARN(msg string) string {
	idx := strings.Index(msg, "arn:aws:iam::")
	if idx < 0 {
		return ""
	}
	rest := msg[idx:]
	end := strings.IndexAny(rest, " \t\n\"'")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func roleNameFromARN(arn string) string {
	idx := strings.LastIndex(arn, "/")
	if idx < 0 {
		return arn
	}
	return arn[idx+1:]
}
