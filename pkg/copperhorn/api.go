package copperhorn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"copperhorn/internal/genotype"
	"copperhorn/internal/model"
	"copperhorn/internal/nn"
	"copperhorn/internal/storage"
)

const defaultDBPath = "copperhorn.db"

var ErrOrganismNotFound = errors.New("organism not found")

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store

	mu          sync.Mutex
	initialized bool
}

type GenerateRequest struct {
	ID         string
	Inputs     int
	Outputs    int
	Seed       int64
	Activation string
}

type GenerateSummary struct {
	ID          string
	Outputs     int
	Connections int
}

type EvaluateRequest struct {
	ID      string
	Input   []float64
	Workers int
}

type LearnRequest struct {
	ID              string
	Input           []float64
	Rate            float64
	Steps           int
	Rule            string
	SaturationLimit float64
}

type LearnSummary struct {
	ID      string
	Steps   int
	Outputs []float64
}

type ExportRequest struct {
	ID     string
	Format string
}

type ImportRequest struct {
	ID     string
	Format string
	Data   []byte
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureStore(ctx)
	return err
}

// Generate builds a random organism and stores it.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateSummary, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return GenerateSummary{}, err
	}
	activation := req.Activation
	if activation == "" {
		activation = nn.DefaultActivation
	}
	if _, err := nn.GetActivation(activation); err != nil {
		return GenerateSummary{}, err
	}

	organism, err := genotype.Construct(req.Inputs, req.Outputs, rand.New(rand.NewSource(req.Seed)), nn.WithActivation(activation))
	if err != nil {
		return GenerateSummary{}, err
	}
	id := req.ID
	if id == "" {
		id = genotype.NewOrganismID()
	}
	if err := store.SaveOrganism(ctx, storage.Stamp(organism.Record(id))); err != nil {
		return GenerateSummary{}, fmt.Errorf("save organism %s: %w", id, err)
	}
	return GenerateSummary{
		ID:          id,
		Outputs:     len(organism.Outputs),
		Connections: organism.ConnectionCount(),
	}, nil
}

// Evaluate runs one forward pass of a stored organism. Workers > 1 fires
// independent neurons concurrently.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) ([]float64, error) {
	organism, err := c.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	out, err := nn.EvaluateParallel(ctx, organism, req.Input, req.Workers)
	if err != nil {
		return nil, fmt.Errorf("evaluate organism %s: %w", req.ID, err)
	}
	return out, nil
}

// Learn applies Steps learning passes over the same input and stores the
// adapted weights. Nothing is stored if any step fails or drives a weight to
// NaN or an infinity.
func (c *Client) Learn(ctx context.Context, req LearnRequest) (LearnSummary, error) {
	if req.Steps <= 0 {
		req.Steps = 1
	}
	organism, err := c.load(ctx, req.ID)
	if err != nil {
		return LearnSummary{}, err
	}

	cfg := nn.PlasticityConfig{Rule: req.Rule, Rate: req.Rate, SaturationLimit: req.SaturationLimit}
	for step := 0; step < req.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return LearnSummary{}, err
		}
		if err := nn.LearnWith(organism, req.Input, cfg); err != nil {
			return LearnSummary{}, fmt.Errorf("learn organism %s step %d: %w", req.ID, step, err)
		}
		if err := nn.CheckWeights(organism); err != nil {
			return LearnSummary{}, fmt.Errorf("learn organism %s step %d diverged (lower the rate or set a saturation limit): %w", req.ID, step, err)
		}
	}

	out, err := nn.Evaluate(organism, req.Input)
	if err != nil {
		return LearnSummary{}, fmt.Errorf("evaluate organism %s: %w", req.ID, err)
	}
	if err := c.store.SaveOrganism(ctx, storage.Stamp(organism.Record(req.ID))); err != nil {
		return LearnSummary{}, fmt.Errorf("save organism %s: %w", req.ID, err)
	}
	return LearnSummary{ID: req.ID, Steps: req.Steps, Outputs: out}, nil
}

// Export encodes a stored organism as json or yaml.
func (c *Client) Export(ctx context.Context, req ExportRequest) ([]byte, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	record, err := c.getRecord(ctx, store, req.ID)
	if err != nil {
		return nil, err
	}
	return storage.EncodeOrganismAs(req.Format, record)
}

// Import decodes an organism record and stores it, keeping the record id
// unless req.ID overrides it. The topology is not validated here; a cyclic
// organism is reported when it is first evaluated.
func (c *Client) Import(ctx context.Context, req ImportRequest) (string, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return "", err
	}
	record, err := storage.DecodeOrganismAs(req.Format, req.Data)
	if err != nil {
		return "", err
	}
	if req.ID != "" {
		record.ID = req.ID
	}
	if record.ID == "" {
		record.ID = genotype.NewOrganismID()
	}
	if err := store.SaveOrganism(ctx, record); err != nil {
		return "", fmt.Errorf("save organism %s: %w", record.ID, err)
	}
	return record.ID, nil
}

func (c *Client) List(ctx context.Context) ([]model.OrganismSummary, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListOrganisms(ctx)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return err
	}
	return store.DeleteOrganism(ctx, id)
}

func (c *Client) load(ctx context.Context, id string) (*nn.Organism, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	record, err := c.getRecord(ctx, store, id)
	if err != nil {
		return nil, err
	}
	return nn.FromRecord(record), nil
}

func (c *Client) getRecord(ctx context.Context, store storage.Store, id string) (model.OrganismRecord, error) {
	if id == "" {
		return model.OrganismRecord{}, errors.New("organism id is required")
	}
	record, ok, err := store.GetOrganism(ctx, id)
	if err != nil {
		return model.OrganismRecord{}, err
	}
	if !ok {
		return model.OrganismRecord{}, fmt.Errorf("%w: %s", ErrOrganismNotFound, id)
	}
	return record, nil
}

func (c *Client) ensureStore(ctx context.Context) (storage.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return c.store, nil
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	c.initialized = true
	return c.store, nil
}
