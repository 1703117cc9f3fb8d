package tools

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/evidence"
	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

// RegisterK8s wires k8s.pod_context, k8s.rollout_status, k8s.events, and
// logs.tail against a shared cluster registry (spec.md §4.7 case-scoped
// tool set), reusing the same k8sclient.Client the investigation pipeline's
// collectors use (internal/evidence) rather than a second client path.
func RegisterK8s(r *Registry, clusters *k8sclient.Registry) {
	r.Register("k8s.pod_context", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		ns, _ := ArgString(args, "namespace")
		pod, _ := ArgString(args, "pod")
		if ns == "" || pod == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		cli, err := clusters.Get(inv.Cluster)
		if err != nil {
			return errResult(err)
		}
		var p *corev1.Pod
		err = cli.Do(ctx, func(ctx context.Context) error {
			got, err := cli.Clientset.CoreV1().Pods(ns).Get(ctx, pod, metav1.GetOptions{})
			if err != nil {
				return err
			}
			p = got
			return nil
		})
		if err != nil {
			return errResult(err)
		}
		containers := make([]map[string]any, 0, len(p.Status.ContainerStatuses))
		for _, cs := range p.Status.ContainerStatuses {
			containers = append(containers, map[string]any{
				"name":          cs.Name,
				"ready":         cs.Ready,
				"restart_count": cs.RestartCount,
				"image":         cs.Image,
			})
		}
		return Result{OK: true, Result: map[string]any{
			"phase":      string(p.Status.Phase),
			"node":       p.Spec.NodeName,
			"containers": containers,
		}}
	})

	r.Register("k8s.rollout_status", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		ns, _ := ArgString(args, "namespace")
		workload, _ := ArgString(args, "workload")
		kind, _ := ArgString(args, "workload_kind")
		if ns == "" || workload == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		cli, err := clusters.Get(inv.Cluster)
		if err != nil {
			return errResult(err)
		}
		status, err := evidence.RolloutStatus(ctx, cli, models.Target{Namespace: ns, WorkloadName: workload, WorkloadKind: kind})
		if err != nil {
			return errResult(err)
		}
		if status == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: status}
	})

	r.Register("k8s.events", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		ns, _ := ArgString(args, "namespace")
		name, _ := ArgString(args, "name")
		if ns == "" || name == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		cli, err := clusters.Get(inv.Cluster)
		if err != nil {
			return errResult(err)
		}
		var list *corev1.EventList
		err = cli.Do(ctx, func(ctx context.Context) error {
			fieldSelector := "involvedObject.name=" + name + ",involvedObject.namespace=" + ns
			l, err := cli.Clientset.CoreV1().Events(ns).List(ctx, metav1.ListOptions{FieldSelector: fieldSelector})
			if err != nil {
				return err
			}
			list = l
			return nil
		})
		if err != nil {
			return errResult(err)
		}
		events := make([]map[string]any, 0, len(list.Items))
		for _, e := range list.Items {
			events = append(events, map[string]any{
				"type": e.Type, "reason": e.Reason, "message": e.Message,
				"count": e.Count, "last_seen": e.LastTimestamp.Time,
			})
		}
		if len(events) == 0 {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: events}
	})

	r.Register("logs.tail", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		ns, _ := ArgString(args, "namespace")
		pod, _ := ArgString(args, "pod")
		container, _ := ArgString(args, "container")
		lines := int64(ArgInt(args, "lines", 100))
		if ns == "" || pod == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		cli, err := clusters.Get(inv.Cluster)
		if err != nil {
			return errResult(err)
		}
		var raw []byte
		err = cli.Do(ctx, func(ctx context.Context) error {
			req := cli.Clientset.CoreV1().Pods(ns).GetLogs(pod, &corev1.PodLogOptions{
				Container: container, TailLines: &lines,
			})
			stream, err := req.Stream(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()
			buf := make([]byte, 256*1024)
			n, readErr := stream.Read(buf)
			raw = append(raw, buf[:n]...)
			if readErr != nil && readErr.Error() != "EOF" {
				return readErr
			}
			return nil
		})
		if err != nil {
			return errResult(err)
		}
		if len(raw) == 0 {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: string(raw)}
	})
}

func errResult(err error) Result {
	code := tarkaerrors.CodeOf(err)
	if code == "" {
		code = tarkaerrors.ToolException("remote", err.Error())
	}
	return Result{OK: false, Error: code}
}
