package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/retakecut/retakecut/internal/config"
	"github.com/retakecut/retakecut/internal/ports/adapters/redisstore"
	"github.com/retakecut/retakecut/internal/types"
	"github.com/retakecut/retakecut/internal/usecase"
)

func newEnqueueCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <bucket> <key>",
		Short: "Queue a job for an uploaded video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobType, _ := cmd.Flags().GetString("type")
			prefix, _ := cmd.Flags().GetString("output-prefix")
			switch jobType {
			case types.JobTypeVideoProcess, types.JobTypeTranscribe:
			default:
				return fmt.Errorf("unsupported job type %q", jobType)
			}

			input, err := json.Marshal(usecase.VideoProcessInput{
				Bucket:       args[0],
				Key:          args[1],
				OutputPrefix: prefix,
			})
			if err != nil {
				return err
			}

			rdb, err := dialRedis(cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			job := &types.Job{ID: uuid.NewString(), Type: jobType, Input: input}
			if err := redisstore.New(rdb).Enqueue(cmd.Context(), job); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), job.ID)
			return nil
		},
	}
	cmd.Flags().String("type", types.JobTypeVideoProcess, "Job type (video_process or transcribe)")
	cmd.Flags().String("output-prefix", "", "Object key prefix for results (defaults to the job ID)")
	return cmd
}

func newStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print a job's state and output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := dialRedis(cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			job, err := redisstore.New(rdb).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := map[string]any{
				"id":         job.ID,
				"type":       job.Type,
				"status":     job.Status,
				"created_at": job.CreatedAt,
				"updated_at": job.UpdatedAt,
			}
			if job.Error != "" {
				view["error"] = job.Error
			}
			if len(job.Output) > 0 {
				view["output"] = json.RawMessage(job.Output)
			}
			b, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func dialRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return rdb, nil
}
