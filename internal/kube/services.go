package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"svcview/internal/cluster"
	"svcview/internal/kube/dto"
)

// Service is what the selected pods section needs to know about a service.
type Service struct {
	Name      string
	Namespace string
	Cluster   string
	Type      string
	Selector  *Selector
}

func (s Service) DTO() dto.ServiceRefDTO {
	return dto.ServiceRefDTO{
		Name:      s.Name,
		Namespace: s.Namespace,
		Cluster:   s.Cluster,
		Type:      s.Type,
		Selector:  s.Selector.Map(),
	}
}

func GetService(ctx context.Context, c *cluster.Clients, clusterName, namespace, name string) (Service, error) {
	svc, err := c.Clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return Service{}, err
	}
	return ServiceFromObject(svc, clusterName), nil
}

// ServiceFromObject maps a core Service. ExternalName services route by DNS
// name and never carry a selector, whatever their spec says.
func ServiceFromObject(svc *corev1.Service, clusterName string) Service {
	out := Service{
		Name:      svc.Name,
		Namespace: svc.Namespace,
		Cluster:   clusterName,
		Type:      serviceType(svc.Spec.Type),
	}
	if svc.Spec.Type != corev1.ServiceTypeExternalName {
		out.Selector = SelectorFromMap(svc.Spec.Selector)
	}
	return out
}

func serviceType(t corev1.ServiceType) string {
	if t == "" {
		return "ClusterIP"
	}
	return string(t)
}
