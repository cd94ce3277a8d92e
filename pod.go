package chatpod

import (
	"context"
	"fmt"
	"log/slog"
)

// Pod owns the long-lived resources of the agent: the configuration, the store with its
// single database connection, and the LLM client. Agents, knowledge bases and shells
// built from a pod borrow those resources; only Close releases them.
type Pod struct {
	config *Config
	store  Storage
	llm    LanguageModel
	logger *slog.Logger
}

// NewPod constructs a new Pod with the given resources.
func NewPod(config *Config, store Storage, llm LanguageModel) *Pod {
	return &Pod{
		config: config,
		store:  store,
		llm:    llm,
		logger: slog.Default(),
	}
}

// OpenPod connects to the configured postgres database and builds the LLM client.
func OpenPod(ctx context.Context, config *Config, logger *slog.Logger) (*Pod, error) {
	store, err := OpenPostgres(ctx, config.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	pod := NewPod(config, store, NewLLM(config.LLMConfig()))
	pod.SetLogger(logger)
	pod.logger.Info("DB CONNECTED", "database", config.DatabaseName)
	return pod, nil
}

func (p *Pod) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

func (p *Pod) Config() *Config {
	return p.config
}

// KnowledgeBase returns a knowledge base over the pod's store, embedding with its LLM.
func (p *Pod) KnowledgeBase() *KnowledgeBase {
	kb := NewKnowledgeBase(p.store, p.llm)
	kb.SetLogger(p.logger)
	return kb
}

// NewAgent wires the context assembler, the LLM and the store into an agent, applying
// the token budget and knowledge lookup settings of the configuration.
func (p *Pod) NewAgent() (*Agent, error) {
	assembler := NewContextAssembler(p.store)
	assembler.SetLogger(p.logger)
	if p.config.MaxContextTokens > 0 {
		counter, err := NewTiktokenCounter()
		if err != nil {
			return nil, err
		}
		assembler.WithTokenBudget(p.config.MaxContextTokens, counter)
	}

	agent := NewAgent(assembler, p.llm, p.store, p.config.HistoryLimit)
	agent.SetLogger(p.logger)
	if p.config.KnowledgeLookup {
		agent.WithKnowledge(p.KnowledgeBase(), p.config.KnowledgeThreshold)
	}
	return agent, nil
}

// Close releases the database connection.
func (p *Pod) Close() error {
	return p.store.Close()
}
