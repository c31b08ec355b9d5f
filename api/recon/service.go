package recon

import (
	"OurFloWorks/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReconService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewReconService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &ReconService{config: cfg, db: db}
}

func (s *ReconService) Name() string {
	return "recon"
}

func (s *ReconService) Start() error {
	go StartReconService(s.config, s.db)
	return nil
}

func (s *ReconService) Stop() error {
	// Implement stop logic if needed
	return nil
}
