package main

import (
	"bytes"
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"svcview/internal/cluster"
	"svcview/internal/config"
	"svcview/internal/view"
)

var _ = Describe("pods command", func() {
	var mgr *cluster.Manager

	BeforeEach(func() {
		objects := []runtime.Object{
			&corev1.Service{
				ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "shop"},
				Spec:       corev1.ServiceSpec{Selector: map[string]string{"app": "web"}},
			},
		}
		for i := 1; i <= 12; i++ {
			objects = append(objects, &corev1.Pod{
				ObjectMeta: metav1.ObjectMeta{
					Name:      fmt.Sprintf("web-%02d", i),
					Namespace: "shop",
					Labels:    map[string]string{"app": "web"},
				},
				Status: corev1.PodStatus{Phase: corev1.PodRunning},
			})
		}
		mgr = cluster.NewStaticManager("kind", map[string]kubernetes.Interface{
			"kind": fake.NewSimpleClientset(objects...),
		})
	})

	It("renders the first page with a load more hint", func() {
		s, err := renderSelectedPods(context.Background(), mgr, "", "shop", "web", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Table.Rows).To(HaveLen(view.PageSize))

		var buf bytes.Buffer
		Expect(view.WriteText(&buf, s)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("Load More (2 more)"))
		Expect(buf.String()).To(ContainSubstring("web-01"))
		Expect(buf.String()).NotTo(ContainSubstring("web-11"))
	})

	It("renders everything with --all", func() {
		s, err := renderSelectedPods(context.Background(), mgr, "kind", "shop", "web", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Table.Rows).To(HaveLen(12))
		Expect(s.LoadMore).To(BeNil())
	})

	It("wraps a missing service", func() {
		_, err := renderSelectedPods(context.Background(), mgr, "", "shop", "api", false)
		Expect(err).To(MatchError(ContainSubstring("get service shop/api")))
	})
})

var _ = Describe("root command", func() {
	It("wires serve and pods", func() {
		cmd := newRootCmd()
		names := []string{}
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("serve", "pods"))
	})

	It("applies log settings", func() {
		cfg := config.Default()
		cfg.LogLevel = "debug"
		cfg.LogFormat = "json"
		Expect(setupLogging(cfg)).To(Succeed())
		Expect(logrus.GetLevel()).To(Equal(logrus.DebugLevel))

		cfg.LogLevel = "loud"
		Expect(setupLogging(cfg)).To(MatchError(ContainSubstring("log level")))
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
})
