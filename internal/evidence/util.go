package evidence

import (
	"bufio"
	"context"
	"io"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

// readLines reads up to maxLines lines from r, keeping only the most
// recent maxLines (ring-buffer style) so a very long stream doesn't blow up
// memory before truncation.
func readLines(r io.Reader, maxLines int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	buf := make([]string, 0, maxLines)
	for scanner.Scan() {
		buf = append(buf, scanner.Text())
		if len(buf) > maxLines {
			buf = buf[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return buf, err
	}
	return buf, nil
}

// RolloutStatus fetches a best-effort rollout status summary for the
// target's owning Deployment/ReplicaSet/StatefulSet, used by both the pod
// and non-pod baselines (spec.md §4.2).
func RolloutStatus(ctx context.Context, cli *k8sclient.Client, target models.Target) (map[string]any, error) {
	if target.Namespace == "" || target.WorkloadName == "" {
		return nil, nil
	}

	switch target.WorkloadKind {
	case "StatefulSet":
		var sts *appsv1.StatefulSet
		err := cli.Do(ctx, func(ctx context.Context) error {
			s, err := cli.Clientset.AppsV1().StatefulSets(target.Namespace).Get(ctx, target.WorkloadName, metav1.GetOptions{})
			if err != nil {
				return err
			}
			sts = s
			return nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"kind":             "StatefulSet",
			"replicas":         sts.Status.Replicas,
			"ready_replicas":   sts.Status.ReadyReplicas,
			"updated_replicas": sts.Status.UpdatedReplicas,
		}, nil
	default:
		var dep *appsv1.Deployment
		err := cli.Do(ctx, func(ctx context.Context) error {
			d, err := cli.Clientset.AppsV1().Deployments(target.Namespace).Get(ctx, target.WorkloadName, metav1.GetOptions{})
			if err != nil {
				return err
			}
			dep = d
			return nil
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"kind":                "Deployment",
			"replicas":            dep.Status.Replicas,
			"ready_replicas":      dep.Status.ReadyReplicas,
			"updated_replicas":    dep.Status.UpdatedReplicas,
			"unavailable_replicas": dep.Status.UnavailableReplicas,
		}, nil
	}
}
