package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lsf-finetune-launcher/pkg/lsf"
	"lsf-finetune-launcher/pkg/services/config"
	"lsf-finetune-launcher/pkg/services/job"
	"lsf-finetune-launcher/pkg/services/version"
	"lsf-finetune-launcher/pkg/utils"
)

var (
	FlagConfigFilePath string
	GConfig            utils.Config
)

func NewLauncherCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "lsf-finetune-launcher",
		Short:   "bsub launcher for LLM fine-tune jobs",
		Version: utils.GetVersion(),
	}

	// Initialize config
	cobra.OnInitialize(func() {
		// Use config file from the flag or search in the default paths
		if FlagConfigFilePath != "" {
			viper.SetConfigFile(FlagConfigFilePath)
		} else {
			viper.AddConfigPath(".")
			viper.AddConfigPath(utils.DefaultConfigDir)
			viper.SetConfigType("yaml")
			viper.SetConfigName("config")
		}

		viper.SetDefault("gpu-type", utils.DefaultGpuType)
		viper.SetDefault("gpu-count", utils.DefaultGpuCount)
		viper.SetDefault("job-name", utils.DefaultJobName)
		viper.SetDefault("default-queue", utils.DefaultQueue)

		// Env vars win over the config file but lose to flags.
		viper.BindEnv("gpu-type", utils.GpuTypeEnv)
		viper.BindEnv("gpu-count", utils.GpuCountEnv)
		viper.BindEnv("job-name", utils.JobNameEnv)

		// Read and parse config file
		viper.ReadInConfig()
		// Initialize logger
		utils.InitLogger(utils.ParseLogLevel(viper.GetString("log-level")))
		if err := viper.Unmarshal(&GConfig); err != nil {
			logrus.Fatalf("Error parsing config file: %s", err)
		}
		applyConfigDefaults(&GConfig)

		logrus.Debugf("Using config:\n%+v", GConfig)
	})

	rootCmd.SetVersionTemplate(utils.VersionTemplate())
	// Specify config file path
	rootCmd.PersistentFlags().StringVarP(&FlagConfigFilePath, "config", "c", "", "Path to configuration file")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "Log level")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newSubmitCommand(),
		newCancelCommand(),
		newJobsCommand(),
		newQueuesCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func applyConfigDefaults(cfg *utils.Config) {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.StorePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.StorePath = filepath.Join(home, ".lsf-finetune-launcher", utils.SubmissionsFile)
	}
}

func newSubmitCommand() *cobra.Command {
	var dryRun bool

	submitCmd := &cobra.Command{
		Use:   "submit [-- training args...]",
		Short: "Render a job description and submit it with bsub",
		Long: "Renders the #BSUB job description for one fine-tune run, writes it to\n" +
			"<jobName>.sh, pipes it into bsub and removes the file again. Arguments\n" +
			"after -- are appended verbatim to the training command line.",
		Run: func(cmd *cobra.Command, args []string) {
			runSubmit(dryRun, args)
		},
	}

	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the job description instead of submitting it")
	submitCmd.Flags().StringP("gpu-type", "g", utils.DefaultGpuType, "GPU type, selects the queue")
	viper.BindPFlag("gpu-type", submitCmd.Flags().Lookup("gpu-type"))
	submitCmd.Flags().IntP("gpu-count", "n", utils.DefaultGpuCount, "Number of GPUs to request")
	viper.BindPFlag("gpu-count", submitCmd.Flags().Lookup("gpu-count"))
	submitCmd.Flags().StringP("job-name", "J", utils.DefaultJobName, "Job name, also names the .out/.err files")
	viper.BindPFlag("job-name", submitCmd.Flags().Lookup("job-name"))

	return submitCmd
}

func runSubmit(dryRun bool, forwardedArgs []string) {
	if err := config.ResolveQueues(&GConfig); err != nil {
		logrus.Fatalf("resolve queues failed: %v", err)
	}

	if dryRun {
		submitter := job.NewSubmitter(&GConfig, nil, nil)
		document, err := submitter.Render(submitter.NewJobSpec(), forwardedArgs)
		if err != nil {
			logrus.Fatalf("render job description failed: %v", err)
		}
		fmt.Print(document)
		return
	}

	client, err := lsf.NewClient()
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	store, err := utils.NewSubmissionStore(GConfig.StorePath)
	if err != nil {
		logrus.Warnf("submission store unavailable: %v", err)
		store = nil
	}

	submitter := job.NewSubmitter(&GConfig, client, store)
	result, err := submitter.Submit(context.Background(), submitter.NewJobSpec(), forwardedArgs)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	fmt.Printf("Job <%d> is submitted to queue <%s>.\n", result.JobId, result.Queue)
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobID>",
		Short: "Kill a submitted job with bkill",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			jobId, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logrus.Fatalf("invalid job id %q: %v", args[0], err)
			}
			client, err := lsf.NewClient()
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			store, err := utils.NewSubmissionStore(GConfig.StorePath)
			if err != nil {
				logrus.Warnf("submission store unavailable: %v", err)
				store = nil
			}
			submitter := job.NewSubmitter(&GConfig, client, store)
			if err := submitter.Cancel(context.Background(), jobId); err != nil {
				logrus.Fatalf("%v", err)
			}
			fmt.Printf("Job <%d> is being terminated.\n", jobId)
		},
	}
}

func newJobsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the local submission history",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := utils.NewSubmissionStore(GConfig.StorePath)
			if err != nil {
				logrus.Fatalf("submission store unavailable: %v", err)
			}
			records, err := store.List()
			if err != nil {
				logrus.Fatalf("list submissions failed: %v", err)
			}
			if len(records) == 0 {
				fmt.Println("No recorded submissions.")
				return
			}

			states := liveJobStates(records)
			fmt.Printf("%-10s %-20s %-12s %-8s %-5s %s\n", "JOBID", "NAME", "QUEUE", "GPUTYPE", "NGPU", "STAT")
			for _, record := range records {
				state := states[record.JobId]
				if state == "" {
					state = "-"
				}
				fmt.Printf("%-10d %-20s %-12s %-8s %-5d %s\n",
					record.JobId, record.JobName, record.Queue, record.GpuType, record.GpuCount, state)
			}
		},
	}
}

// liveJobStates asks bjobs about the recorded jobs. The history listing
// still works when LSF is unreachable, just without the STAT column.
func liveJobStates(records []*utils.SubmissionRecord) map[uint64]string {
	states := make(map[uint64]string)

	client, err := lsf.NewClient()
	if err != nil {
		logrus.Debugf("LSF unavailable, skipping live job states: %v", err)
		return states
	}
	jobIds := make([]uint64, 0, len(records))
	for _, record := range records {
		jobIds = append(jobIds, record.JobId)
	}
	statuses, err := client.Bjobs(context.Background(), jobIds...)
	if err != nil {
		logrus.Debugf("bjobs failed, skipping live job states: %v", err)
		return states
	}
	for _, status := range statuses {
		states[status.JobId] = status.State
	}
	return states
}

func newQueuesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List the GPU queue catalog",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.ResolveQueues(&GConfig); err != nil {
				logrus.Fatalf("resolve queues failed: %v", err)
			}
			queues, err := config.ListQueues(&GConfig)
			if err != nil {
				logrus.Fatalf("list queues failed: %v", err)
			}
			fmt.Printf("%-16s %-10s %s\n", "QUEUE", "GPUTYPE", "DESCRIPTION")
			for _, queue := range queues {
				gpuType := queue.GpuType
				if gpuType == "" {
					gpuType = "*"
				}
				fmt.Printf("%-16s %-10s %s\n", queue.Name, gpuType, queue.Description)
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print launcher and LSF versions",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}
