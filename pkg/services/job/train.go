package job

import (
	"strings"

	"lsf-finetune-launcher/pkg/utils"
)

const (
	defaultEntrypoint  = "deepspeed"
	defaultTrainScript = "fine-tune/fine-tune.py"
)

// Hyperparameters baked into the fine-tune invocation. These are static
// data as far as the launcher is concerned; operators override them by
// forwarding extra arguments, which are appended last and therefore win.
var defaultTrainArgs = [][2]string{
	{"--report_to", "none"},
	{"--model_max_length", "512"},
	{"--num_train_epochs", "4"},
	{"--per_device_train_batch_size", "8"},
	{"--gradient_accumulation_steps", "8"},
	{"--save_strategy", "epoch"},
	{"--learning_rate", "2e-5"},
	{"--lr_scheduler_type", "cosine"},
	{"--adam_beta1", "0.9"},
	{"--adam_beta2", "0.98"},
	{"--adam_epsilon", "1e-8"},
	{"--max_grad_norm", "0.5"},
	{"--weight_decay", "1e-4"},
	{"--warmup_ratio", "0.0"},
	{"--logging_steps", "10"},
	{"--gradient_checkpointing", "True"},
	{"--bf16", "True"},
	{"--tf32", "True"},
	{"--use_lora", "True"},
}

// TrainCommandBuilder assembles the training entry-point command line.
type TrainCommandBuilder struct {
	cfg utils.TrainConfig
}

func NewTrainCommandBuilder(cfg utils.TrainConfig) *TrainCommandBuilder {
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = defaultEntrypoint
	}
	if cfg.Script == "" {
		cfg.Script = defaultTrainScript
	}
	return &TrainCommandBuilder{cfg: cfg}
}

// Build returns the full command line, forwarded arguments appended
// verbatim.
func (b *TrainCommandBuilder) Build(forwardedArgs []string) string {
	argv := []string{b.cfg.Entrypoint}
	if b.cfg.Hostfile != "" {
		argv = append(argv, "--hostfile", b.cfg.Hostfile)
	}
	argv = append(argv, b.cfg.Script)

	pathArgs := [][2]string{
		{"--data_path", b.cfg.DataPath},
		{"--model_name_or_path", b.cfg.ModelPath},
		{"--output_dir", b.cfg.OutputDir},
	}
	for _, pair := range pathArgs {
		if pair[1] == "" {
			continue
		}
		argv = append(argv, pair[0], pair[1])
	}

	for _, pair := range defaultTrainArgs {
		argv = append(argv, pair[0], pair[1])
	}

	if b.cfg.DeepspeedConfig != "" {
		argv = append(argv, "--deepspeed", b.cfg.DeepspeedConfig)
	}

	argv = append(argv, forwardedArgs...)
	return strings.Join(argv, " ")
}
