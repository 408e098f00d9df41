package kube

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"

	"svcview/internal/cluster"
	"svcview/internal/kube/dto"
)

// ListPods lists pods in namespace matching labelSelector. An empty
// selector lists every pod. Items are ordered by name.
func ListPods(ctx context.Context, c *cluster.Clients, namespace, labelSelector string) ([]dto.PodSummaryDTO, error) {
	pods, err := listPodsBySelector(ctx, c, namespace, labelSelector)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PodSummaryDTO, 0, len(pods))
	for i := range pods {
		out = append(out, podSummary(&pods[i]))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace == out[j].Namespace {
			return out[i].Name < out[j].Name
		}
		return out[i].Namespace < out[j].Namespace
	})
	return out, nil
}

func podSummary(p *corev1.Pod) dto.PodSummaryDTO {
	var readyCount, totalCount int
	var restarts int32

	for _, cs := range p.Status.ContainerStatuses {
		totalCount++
		if cs.Ready {
			readyCount++
		}
		restarts += cs.RestartCount
	}

	containers := make([]string, 0, len(p.Spec.Containers))
	for _, ctn := range p.Spec.Containers {
		containers = append(containers, ctn.Name)
	}

	created := int64(0)
	if !p.CreationTimestamp.IsZero() {
		created = p.CreationTimestamp.Unix()
	}

	return dto.PodSummaryDTO{
		Name:       p.Name,
		Namespace:  p.Namespace,
		Node:       p.Spec.NodeName,
		Phase:      string(p.Status.Phase),
		Ready:      fmtReady(readyCount, totalCount),
		Restarts:   restarts,
		Containers: containers,
		CreatedAt:  created,
	}
}

func fmtReady(ready, total int) string {
	if total == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", ready, total)
}
