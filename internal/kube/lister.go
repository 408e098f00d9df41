package kube

import (
	"context"
	"fmt"

	"svcview/internal/cluster"
	"svcview/internal/kube/dto"
)

// ListKey identifies one pod list query.
type ListKey struct {
	Namespace     string
	Cluster       string
	LabelSelector string
}

// ManagerPodLister resolves the cluster through a Manager for every query.
type ManagerPodLister struct {
	Mgr *cluster.Manager
}

func (l ManagerPodLister) ListPods(ctx context.Context, key ListKey) ([]dto.PodSummaryDTO, error) {
	clients, _, err := l.Mgr.ClientsFor(ctx, key.Cluster)
	if err != nil {
		return nil, fmt.Errorf("resolve cluster: %w", err)
	}
	return ListPods(ctx, clients, key.Namespace, key.LabelSelector)
}
