package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"

	"svcview/internal/cluster"
)

func listPodsBySelector(ctx context.Context, c *cluster.Clients, namespace, selector string) ([]corev1.Pod, error) {
	listOpts := metav1.ListOptions{}
	if selector != "" {
		listOpts.LabelSelector = selector
	}
	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, listOpts)
	if err != nil {
		return nil, err
	}
	return pods.Items, nil
}

// WatchPods opens a watch on the pods matching selector. The caller stops it.
func WatchPods(ctx context.Context, c *cluster.Clients, namespace, selector string) (watch.Interface, error) {
	opts := metav1.ListOptions{}
	if selector != "" {
		opts.LabelSelector = selector
	}
	return c.Clientset.CoreV1().Pods(namespace).Watch(ctx, opts)
}

func DeletePod(ctx context.Context, c *cluster.Clients, namespace, name string) error {
	return c.Clientset.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
}
