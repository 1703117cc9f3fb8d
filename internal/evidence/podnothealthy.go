package evidence

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/models"
)

// PodNotHealthyModule attaches optional image-pull diagnostics on top of
// the pod baseline (spec.md §4.2 pod_not_healthy row): image-ref parse,
// error-bucket classification, service-account pull secrets, and an
// optional ECR image probe.
type PodNotHealthyModule struct {
	Clusters *k8sclient.Registry
	ECRProbe func(ctx context.Context, region, accountID, repository, tag string) (string, error)
}

func (m *PodNotHealthyModule) Name() string { return "pod_not_healthy" }

func (m *PodNotHealthyModule) Applies(family string) bool { return family == "pod_not_healthy" }

func (m *PodNotHealthyModule) Collect(ctx context.Context, inv *models.Investigation) {
	if inv.Target.Pod == "" || inv.Target.Namespace == "" {
		return
	}
	if inv.Evidence.K8s != nil && inv.Evidence.K8s.ImagePull != nil {
		return
	}

	cli, err := m.Clusters.Get(inv.Target.Cluster)
	if err != nil {
		inv.AddError(m.Name(), err)
		return
	}

	var pod *corev1.Pod
	err = cli.Do(ctx, func(ctx context.Context) error {
		p, err := cli.Clientset.CoreV1().Pods(inv.Target.Namespace).Get(ctx, inv.Target.Pod, metav1.GetOptions{})
		if err != nil {
			return err
		}
		pod = p
		return nil
	})
	if err != nil {
		inv.AddError(m.Name()+".get_pod", err)
		return
	}

	status, imageRef, failMsg := findImagePullFailure(pod, inv.Target.Container)
	if !status {
		return
	}

	diag := ParseImageRef(imageRef)
	diag.ErrorBucket = ImagePullErrorBucket(failMsg)
	diag.PullSecrets = pullSecretNames(pod.Spec.ImagePullSecrets)

	if diag.IsECR && m.ECRProbe != nil {
		if result, err := m.ECRProbe(ctx, diag.ECRRegion, diag.ECRAccountID, diag.Repository, diag.Tag); err != nil {
			diag.ECRProbeResult = "error: " + err.Error()
		} else {
			diag.ECRProbeResult = result
		}
	}

	ev := inv.Evidence.K8s
	if ev == nil {
		ev = &models.K8sEvidence{}
	}
	ev.ImagePull = &diag
	inv.Evidence.K8s = ev
}

func (m *PodNotHealthyModule) Diagnose(inv *models.Investigation) []models.Hypothesis {
	return podNotHealthyHypotheses(inv.Analysis.Features)
}

// findImagePullFailure scans container statuses for an ImagePullBackOff /
// ErrImagePull waiting reason and returns the failing image ref and
// message.
func findImagePullFailure(pod *corev1.Pod, container string) (found bool, imageRef string, message string) {
	for _, cs := range pod.Status.ContainerStatuses {
		if container != "" && cs.Name != container {
			continue
		}
		if cs.State.Waiting == nil {
			continue
		}
		reason := cs.State.Waiting.Reason
		if reason == "ImagePullBackOff" || reason == "ErrImagePull" {
			return true, cs.Image, cs.State.Waiting.Message
		}
	}
	return false, "", ""
}

func pullSecretNames(refs []corev1.LocalObjectReference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}
