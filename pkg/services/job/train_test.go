package job

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lsf-finetune-launcher/pkg/utils"
)

func TestBuildDefaults(t *testing.T) {
	builder := NewTrainCommandBuilder(utils.TrainConfig{})
	command := builder.Build(nil)

	assert.True(t, strings.HasPrefix(command, "deepspeed fine-tune/fine-tune.py "))
	assert.Contains(t, command, "--learning_rate 2e-5")
	assert.Contains(t, command, "--use_lora True")
	assert.NotContains(t, command, "--hostfile")
	assert.NotContains(t, command, "--data_path")
}

func TestBuildWithPaths(t *testing.T) {
	builder := NewTrainCommandBuilder(utils.TrainConfig{
		Hostfile:        "/etc/hostfile",
		DataPath:        "/data/train.json",
		ModelPath:       "/models/base",
		OutputDir:       "/models/base-ft",
		DeepspeedConfig: "/etc/ds_config.json",
	})
	command := builder.Build(nil)

	assert.True(t, strings.HasPrefix(command, "deepspeed --hostfile /etc/hostfile fine-tune/fine-tune.py "))
	assert.Contains(t, command, "--data_path /data/train.json")
	assert.Contains(t, command, "--model_name_or_path /models/base")
	assert.Contains(t, command, "--output_dir /models/base-ft")
	assert.Contains(t, command, "--deepspeed /etc/ds_config.json")
}

func TestBuildForwardedArgsComeLast(t *testing.T) {
	builder := NewTrainCommandBuilder(utils.TrainConfig{})
	command := builder.Build([]string{"--num_train_epochs", "3", "--extra", "x y"})

	// Appended verbatim and after the defaults, so they win.
	assert.True(t, strings.HasSuffix(command, "--num_train_epochs 3 --extra x y"))
	assert.Less(t, strings.Index(command, "--num_train_epochs 4"), strings.LastIndex(command, "--num_train_epochs 3"))
}
