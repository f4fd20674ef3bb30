package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"lsf-finetune-launcher/pkg/utils"
)

// ResolveQueues fills in the effective gpuType -> queue mapping on the
// config. Precedence: queue catalog file, then the queues map from the
// launcher config, then the built-in mapping.
func ResolveQueues(cfg *utils.Config) error {
	if cfg.QueuesFile != "" {
		catalog, err := utils.ParseQueuesConfig(cfg.QueuesFile)
		if err != nil {
			return err
		}
		cfg.Queues = catalog.GpuTypeMap()
		if catalog.DefaultQueue != "" {
			cfg.DefaultQueue = catalog.DefaultQueue
		}
		logrus.Debugf("loaded %d queues from %s", len(cfg.Queues), cfg.QueuesFile)
		return nil
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = utils.BuiltinQueues()
	}
	if cfg.DefaultQueue == "" {
		cfg.DefaultQueue = utils.DefaultQueue
	}
	return nil
}

// ListQueues returns the catalog for display, synthesizing entries from
// the flat mapping when no catalog file is configured.
func ListQueues(cfg *utils.Config) ([]utils.Queue, error) {
	if cfg.QueuesFile != "" {
		catalog, err := utils.ParseQueuesConfig(cfg.QueuesFile)
		if err != nil {
			return nil, err
		}
		return catalog.Queues, nil
	}

	queues := make([]utils.Queue, 0, len(cfg.Queues)+1)
	for gpuType, name := range cfg.Queues {
		queues = append(queues, utils.Queue{
			Name:    name,
			GpuType: gpuType,
		})
	}
	queues = append(queues, utils.Queue{
		Name:        cfg.DefaultQueue,
		Description: fmt.Sprintf("default queue (gpu types without a dedicated queue, default %s)", utils.DefaultGpuType),
	})
	return queues, nil
}
