package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"svcview/internal/cluster"
	"svcview/internal/kube"
	"svcview/internal/view"
)

func newPodsCmd(root *rootOptions) *cobra.Command {
	var (
		namespace   string
		contextName string
		showAll     bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "pods SERVICE",
		Short: "Print the pods selected by a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := cluster.NewManager(root.cfg.Kubeconfig)
			if err != nil {
				return fmt.Errorf("init cluster manager: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), root.cfg.RequestTimeout.Duration)
			defer cancel()

			section, err := renderSelectedPods(ctx, mgr, contextName, namespace, args[0], showAll)
			if err != nil {
				return err
			}
			return view.Write(cmd.OutOrStdout(), output, section)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "service namespace")
	cmd.Flags().StringVar(&contextName, "context", "", "kubeconfig context (default: current context)")
	cmd.Flags().BoolVar(&showAll, "all", false, "show every pod instead of the first page")
	cmd.Flags().StringVarP(&output, "output", "o", view.FormatText, "output format: text, json or yaml")
	return cmd
}

func renderSelectedPods(ctx context.Context, mgr *cluster.Manager, contextName, namespace, name string, showAll bool) (*view.Section, error) {
	clients, active, err := mgr.ClientsFor(ctx, contextName)
	if err != nil {
		return nil, err
	}

	svc, err := kube.GetService(ctx, clients, active, namespace, name)
	if err != nil {
		return nil, fmt.Errorf("get service %s/%s: %w", namespace, name, err)
	}

	v := view.NewSelectedPods(kube.ManagerPodLister{Mgr: mgr})
	v.SetService(svc)
	if showAll {
		v.ShowAll()
	}
	// a list failure is part of the rendered section
	_ = v.Refresh(ctx)
	return v.Render(time.Now()), nil
}
