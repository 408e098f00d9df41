package view

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/duration"

	"svcview/internal/kube"
	"svcview/internal/kube/dto"
)

// PageSize is the number of pods shown before the table is expanded.
const PageSize = 10

type PodLister interface {
	ListPods(ctx context.Context, key kube.ListKey) ([]dto.PodSummaryDTO, error)
}

type FetchState string

const (
	FetchLoading FetchState = "loading"
	FetchSuccess FetchState = "success"
	FetchError   FetchState = "error"
)

// SelectedPods holds the state of one selected pods section. It is not safe
// for concurrent use; each request or websocket session owns its instance.
type SelectedPods struct {
	lister PodLister

	svc    kube.Service
	query  queryMemo
	key    kube.ListKey
	keySet bool

	state FetchState
	pods  []dto.PodSummaryDTO
	err   error

	showAll bool
}

func NewSelectedPods(lister PodLister) *SelectedPods {
	return &SelectedPods{lister: lister, state: FetchLoading}
}

// queryMemo caches the label selector string for one *Selector value.
type queryMemo struct {
	ref      *kube.Selector
	value    string
	set      bool
	computes int
}

func (m *queryMemo) get(sel *kube.Selector) string {
	if m.set && m.ref == sel {
		return m.value
	}
	m.ref = sel
	m.value = kube.SelectorToLabelSelector(sel)
	m.set = true
	m.computes++
	return m.value
}

// SetService points the section at svc. The fetch result is dropped only
// when the list key changes.
func (v *SelectedPods) SetService(svc kube.Service) {
	v.svc = svc
	key := kube.ListKey{
		Namespace:     svc.Namespace,
		Cluster:       svc.Cluster,
		LabelSelector: v.query.get(svc.Selector),
	}
	if v.keySet && key == v.key {
		return
	}
	v.key = key
	v.keySet = true
	v.state = FetchLoading
	v.pods = nil
	v.err = nil
}

func (v *SelectedPods) Service() kube.Service { return v.svc }

func (v *SelectedPods) ListKey() kube.ListKey { return v.key }

func (v *SelectedPods) LabelSelector() string { return v.key.LabelSelector }

func (v *SelectedPods) HasSelector() bool { return v.svc.Selector != nil }

func (v *SelectedPods) State() FetchState { return v.state }

// NeedsFetch reports a selector whose list key was never fetched.
func (v *SelectedPods) NeedsFetch() bool {
	return v.HasSelector() && v.state == FetchLoading
}

// Refresh lists pods for the current key. Services without a selector are
// never fetched. The fetch error is kept for rendering and also returned.
func (v *SelectedPods) Refresh(ctx context.Context) error {
	if !v.HasSelector() {
		return nil
	}
	pods, err := v.lister.ListPods(ctx, v.key)
	v.Apply(pods, err)
	return err
}

// Apply records a fetch result obtained elsewhere.
func (v *SelectedPods) Apply(pods []dto.PodSummaryDTO, err error) {
	if err != nil {
		v.state = FetchError
		v.err = err
		v.pods = nil
		return
	}
	v.state = FetchSuccess
	v.err = nil
	v.pods = pods
}

// ShowAll expands the table. There is no way back.
func (v *SelectedPods) ShowAll() { v.showAll = true }

func (v *SelectedPods) Expanded() bool { return v.showAll }

func (v *SelectedPods) Render(now time.Time) *Section {
	if !v.HasSelector() {
		return nil
	}

	s := &Section{Title: SectionTitle, Total: len(v.pods)}

	if v.svc.Selector.IsEmpty() {
		s.Warning = EmptySelectorWarning
		switch v.state {
		case FetchError:
			s.Error = v.err.Error()
		case FetchLoading:
			s.Loading = true
		}
		if len(v.pods) > 0 {
			s.Table = v.table(v.pods, now)
		}
		return s
	}

	switch {
	case v.state == FetchError:
		s.Error = v.err.Error()
		return s
	case v.state == FetchLoading:
		s.Loading = true
		s.Empty = LoadingMessage
		return s
	case len(v.pods) == 0:
		s.Empty = NoPodsMessage
		return s
	}

	shown := v.pods
	if !v.showAll && len(shown) > PageSize {
		shown = shown[:PageSize]
		remaining := len(v.pods) - PageSize
		s.LoadMore = &LoadMore{
			Remaining: remaining,
			Label:     fmt.Sprintf("Load More (%d more)", remaining),
		}
	}
	s.Table = v.table(shown, now)
	return s
}

func (v *SelectedPods) table(pods []dto.PodSummaryDTO, now time.Time) *Table {
	rows := make([]Row, 0, len(pods))
	for _, p := range pods {
		rows = append(rows, Row{
			Name:      p.Name,
			Namespace: p.Namespace,
			Link:      podPath(p.Namespace, p.Name, v.svc.Cluster),
			Status:    p.Phase,
			Age:       podAge(p.CreatedAt, now),
			Node:      dashIfEmpty(p.Node),
			Actions: []Action{{
				Kind:   "delete",
				Method: "DELETE",
				Href:   "/api" + podPath(p.Namespace, p.Name, v.svc.Cluster),
			}},
		})
	}
	return &Table{Columns: podColumns, Rows: rows}
}

func podPath(namespace, name, cluster string) string {
	p := "/namespaces/" + url.PathEscape(namespace) + "/pods/" + url.PathEscape(name)
	if cluster != "" {
		p += "?cluster=" + url.QueryEscape(cluster)
	}
	return p
}

func podAge(createdAt int64, now time.Time) string {
	if createdAt == 0 {
		return "-"
	}
	return duration.HumanDuration(now.Sub(time.Unix(createdAt, 0)))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
