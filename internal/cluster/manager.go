package cluster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

var log = logrus.WithField("component", "cluster")

type ContextInfo struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	AuthInfo  string `json:"authInfo"`
	Namespace string `json:"namespace,omitempty"`
}

// Manager resolves API clients per kubeconfig context. The context name is
// the cluster identifier used throughout the API.
type Manager struct {
	mu sync.RWMutex

	kubeconfigPath string
	rawConfig      api.Config

	activeContext string

	clients map[string]*Clients
}

type Clients struct {
	RestConfig *rest.Config
	Clientset  kubernetes.Interface
}

func DefaultKubeconfigPath() string {
	if v := os.Getenv("KUBECONFIG"); v != "" {
		// NOTE: clientcmd understands ':' separated lists, we only take the first.
		return filepath.SplitList(v)[0]
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kube", "config")
}

func NewManager(kubeconfigPath string) (*Manager, error) {
	if kubeconfigPath == "" {
		kubeconfigPath = DefaultKubeconfigPath()
	}

	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
	cfg, err := loadingRules.Load()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig: %w", err)
	}

	log.WithFields(logrus.Fields{
		"kubeconfig": kubeconfigPath,
		"context":    cfg.CurrentContext,
		"contexts":   len(cfg.Contexts),
	}).Info("kubeconfig loaded")

	return &Manager{
		kubeconfigPath: kubeconfigPath,
		rawConfig:      *cfg,
		activeContext:  cfg.CurrentContext,
		clients:        map[string]*Clients{},
	}, nil
}

// NewStaticManager builds a Manager over prebuilt clientsets, keyed by
// context name. No kubeconfig is consulted.
func NewStaticManager(active string, clientsets map[string]kubernetes.Interface) *Manager {
	m := &Manager{
		rawConfig:     api.Config{Contexts: map[string]*api.Context{}},
		activeContext: active,
		clients:       make(map[string]*Clients, len(clientsets)),
	}
	for name, cs := range clientsets {
		m.rawConfig.Contexts[name] = &api.Context{Cluster: name}
		m.clients[name] = &Clients{Clientset: cs}
	}
	return m
}

func (m *Manager) ListContexts() []ContextInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ContextInfo, 0, len(m.rawConfig.Contexts))
	for name, ctx := range m.rawConfig.Contexts {
		out = append(out, ContextInfo{
			Name:      name,
			Cluster:   ctx.Cluster,
			AuthInfo:  ctx.AuthInfo,
			Namespace: ctx.Namespace,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) ActiveContext() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeContext
}

func (m *Manager) SetActiveContext(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rawConfig.Contexts[name]; !ok {
		return fmt.Errorf("unknown context: %s", name)
	}
	m.activeContext = name
	log.WithField("context", name).Info("active context changed")
	return nil
}

// GetClients returns clients for the active context.
func (m *Manager) GetClients(ctx context.Context) (*Clients, string, error) {
	return m.ClientsFor(ctx, "")
}

// ClientsFor returns clients for the named context, or the active one when
// name is empty. The resolved context name is always returned.
func (m *Manager) ClientsFor(ctx context.Context, name string) (*Clients, string, error) {
	m.mu.RLock()
	if name == "" {
		name = m.activeContext
	}
	if c, ok := m.clients[name]; ok {
		m.mu.RUnlock()
		return c, name, nil
	}
	_, known := m.rawConfig.Contexts[name]
	m.mu.RUnlock()

	if !known {
		return nil, name, fmt.Errorf("unknown context: %s", name)
	}

	// Build rest.Config for the context (supports exec plugins => OIDC-friendly)
	overrides := &clientcmd.ConfigOverrides{CurrentContext: name}
	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: m.kubeconfigPath}
	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	restCfg, err := cc.ClientConfig()
	if err != nil {
		return nil, name, fmt.Errorf("build rest config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, name, fmt.Errorf("new clientset: %w", err)
	}

	clients := &Clients{
		RestConfig: restCfg,
		Clientset:  clientset,
	}

	m.mu.Lock()
	m.clients[name] = clients
	m.mu.Unlock()

	log.WithFields(logrus.Fields{"context": name, "host": restCfg.Host}).Debug("clients created")
	return clients, name, nil
}
