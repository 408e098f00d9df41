package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"svcview/internal/kube"
	"svcview/internal/kube/dto"
)

type fakeLister struct {
	pods  []dto.PodSummaryDTO
	err   error
	calls []kube.ListKey
}

func (f *fakeLister) ListPods(_ context.Context, key kube.ListKey) ([]dto.PodSummaryDTO, error) {
	f.calls = append(f.calls, key)
	return f.pods, f.err
}

func makePods(n int, created time.Time) []dto.PodSummaryDTO {
	out := make([]dto.PodSummaryDTO, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, dto.PodSummaryDTO{
			Name:      fmt.Sprintf("example-pod-%02d", i),
			Namespace: "default",
			Node:      fmt.Sprintf("node-%d", (i%3)+1),
			Phase:     "Running",
			CreatedAt: created.Unix(),
		})
	}
	return out
}

func service(sel *kube.Selector) kube.Service {
	return kube.Service{Name: "example-service", Namespace: "default", Type: "ClusterIP", Selector: sel}
}

var _ = Describe("SelectedPods", func() {
	var (
		ctx    context.Context
		now    time.Time
		lister *fakeLister
		v      *SelectedPods
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2022, 10, 25, 12, 0, 0, 0, time.UTC)
		lister = &fakeLister{}
		v = NewSelectedPods(lister)
	})

	Context("without a selector", func() {
		It("renders nothing and never lists", func() {
			svc := service(nil)
			svc.Type = "ExternalName"
			v.SetService(svc)

			Expect(v.Refresh(ctx)).To(Succeed())
			Expect(v.Render(now)).To(BeNil())
			Expect(lister.calls).To(BeEmpty())
		})
	})

	Context("with an empty selector", func() {
		It("warns and shows every pod without paging", func() {
			lister.pods = makePods(25, now.Add(-2*time.Hour))
			v.SetService(service(kube.NewSelector()))
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s).NotTo(BeNil())
			Expect(s.Title).To(Equal(SectionTitle))
			Expect(s.Warning).To(Equal(EmptySelectorWarning))
			Expect(s.Table.Rows).To(HaveLen(25))
			Expect(s.LoadMore).To(BeNil())
			Expect(lister.calls).To(ConsistOf(kube.ListKey{Namespace: "default", LabelSelector: ""}))
		})

		It("shows only the warning when nothing matches", func() {
			v.SetService(service(kube.NewSelector()))
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s.Warning).To(Equal(EmptySelectorWarning))
			Expect(s.Table).To(BeNil())
			Expect(s.Empty).To(BeEmpty())
		})

		It("keeps a list failure visible next to the warning", func() {
			lister.err = errors.New("pods is forbidden")
			v.SetService(service(kube.NewSelector()))
			Expect(v.Refresh(ctx)).To(MatchError("pods is forbidden"))

			s := v.Render(now)
			Expect(s.Warning).To(Equal(EmptySelectorWarning))
			Expect(s.Error).To(Equal("pods is forbidden"))
		})
	})

	Context("with a selector", func() {
		var sel *kube.Selector

		BeforeEach(func() {
			sel = kube.NewSelector(kube.Label{Key: "app", Value: "example"})
		})

		It("is loading until the first fetch completes", func() {
			v.SetService(service(sel))

			Expect(v.NeedsFetch()).To(BeTrue())
			s := v.Render(now)
			Expect(s.Loading).To(BeTrue())
			Expect(s.Empty).To(Equal(LoadingMessage))
			Expect(s.Table).To(BeNil())
		})

		It("renders the fetch error verbatim", func() {
			lister.err = errors.New(`pods is forbidden: User "dev" cannot list resource "pods"`)
			v.SetService(service(sel))
			_ = v.Refresh(ctx)

			s := v.Render(now)
			Expect(v.State()).To(Equal(FetchError))
			Expect(s.Error).To(Equal(`pods is forbidden: User "dev" cannot list resource "pods"`))
			Expect(s.Table).To(BeNil())
			Expect(s.Warning).To(BeEmpty())
		})

		It("renders the empty message when no pod matches", func() {
			v.SetService(service(sel))
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s.Empty).To(Equal(NoPodsMessage))
			Expect(s.Loading).To(BeFalse())
			Expect(s.Table).To(BeNil())
		})

		It("pages 25 pods as 10 plus 15 more until expanded", func() {
			lister.pods = makePods(25, now.Add(-90*time.Minute))
			v.SetService(service(sel))
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s.Total).To(Equal(25))
			Expect(s.Table.Rows).To(HaveLen(PageSize))
			Expect(s.Table.Rows[0].Name).To(Equal("example-pod-01"))
			Expect(s.Table.Rows[9].Name).To(Equal("example-pod-10"))
			Expect(s.LoadMore).To(Equal(&LoadMore{Remaining: 15, Label: "Load More (15 more)"}))

			v.ShowAll()
			s = v.Render(now)
			Expect(s.Table.Rows).To(HaveLen(25))
			Expect(s.LoadMore).To(BeNil())
			Expect(v.Expanded()).To(BeTrue())
		})

		It("does not offer more for exactly one page", func() {
			lister.pods = makePods(PageSize, now)
			v.SetService(service(sel))
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s.Table.Rows).To(HaveLen(PageSize))
			Expect(s.LoadMore).To(BeNil())
		})

		It("fills the table columns", func() {
			lister.pods = []dto.PodSummaryDTO{
				{Name: "web-1", Namespace: "default", Node: "node-1", Phase: "Running", CreatedAt: now.Add(-3 * time.Hour).Unix()},
				{Name: "web-2", Namespace: "default", Phase: "Pending"},
			}
			svc := service(sel)
			svc.Cluster = "kind-dev"
			v.SetService(svc)
			Expect(v.Refresh(ctx)).To(Succeed())

			s := v.Render(now)
			Expect(s.Table.Columns).To(Equal(podColumns))
			Expect(s.Table.Rows[0]).To(Equal(Row{
				Name:      "web-1",
				Namespace: "default",
				Link:      "/namespaces/default/pods/web-1?cluster=kind-dev",
				Status:    "Running",
				Age:       "3h",
				Node:      "node-1",
				Actions: []Action{{
					Kind:   "delete",
					Method: "DELETE",
					Href:   "/api/namespaces/default/pods/web-1?cluster=kind-dev",
				}},
			}))
			Expect(s.Table.Rows[1].Node).To(Equal("-"))
			Expect(s.Table.Rows[1].Age).To(Equal("-"))
		})

		It("keeps the expansion after a refetch", func() {
			lister.pods = makePods(12, now)
			v.SetService(service(sel))
			v.ShowAll()
			Expect(v.Refresh(ctx)).To(Succeed())

			Expect(v.Render(now).Table.Rows).To(HaveLen(12))
		})
	})

	Context("query memoization", func() {
		It("recomputes the query only when the selector reference changes", func() {
			sel := kube.NewSelector(kube.Label{Key: "app", Value: "example"})
			v.SetService(service(sel))
			Expect(v.LabelSelector()).To(Equal("app=example"))
			Expect(v.query.computes).To(Equal(1))

			svc := service(sel)
			svc.Name = "renamed"
			v.SetService(svc)
			v.SetService(service(sel))
			Expect(v.query.computes).To(Equal(1))

			v.SetService(service(kube.NewSelector(kube.Label{Key: "app", Value: "example"})))
			Expect(v.query.computes).To(Equal(2))
		})

		It("keeps fetched pods while the list key is unchanged", func() {
			sel := kube.NewSelector(kube.Label{Key: "app", Value: "example"})
			lister.pods = makePods(3, now)
			v.SetService(service(sel))
			Expect(v.Refresh(ctx)).To(Succeed())

			v.SetService(service(kube.NewSelector(kube.Label{Key: "app", Value: "example"})))
			Expect(v.NeedsFetch()).To(BeFalse())
			Expect(v.Render(now).Table.Rows).To(HaveLen(3))
		})

		It("drops the result when the list key changes", func() {
			lister.pods = makePods(3, now)
			v.SetService(service(kube.NewSelector(kube.Label{Key: "app", Value: "example"})))
			Expect(v.Refresh(ctx)).To(Succeed())

			v.SetService(service(kube.NewSelector(kube.Label{Key: "app", Value: "other"})))
			Expect(v.NeedsFetch()).To(BeTrue())
			Expect(v.Render(now).Loading).To(BeTrue())

			Expect(v.Refresh(ctx)).To(Succeed())
			Expect(lister.calls).To(HaveLen(2))
			Expect(lister.calls[1].LabelSelector).To(Equal("app=other"))
		})
	})
})
