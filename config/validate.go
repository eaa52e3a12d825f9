package config

// ValidationError describes a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks a loaded configuration for problems.
// Errors at Level "error" should block startup; "warning" entries are
// surfaced in logs but do not prevent the node from running.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Router != nil {
		if cfg.Router.InitialEnvelopeTTL == 0 {
			errs = append(errs, ValidationError{
				Field:   "router.initial_envelope_ttl",
				Message: "must be greater than zero",
				Level:   "error",
			})
		}
	}

	if cfg.Presence != nil {
		if cfg.Presence.OfflineThreshold <= cfg.Presence.SendInterval {
			errs = append(errs, ValidationError{
				Field:   "presence.offline_threshold",
				Message: "must exceed presence.send_interval or peers will flap offline",
				Level:   "error",
			})
		}
	}

	if cfg.Backup != nil {
		if cfg.Backup.ReplicaCount < 3 || cfg.Backup.ReplicaCount > 5 {
			errs = append(errs, ValidationError{
				Field:   "backup.replica_count",
				Message: "recommended range is 3-5 replicas",
				Level:   "warning",
			})
		}
	}

	if cfg.Group != nil && cfg.Group.SendRateLimit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "group.send_rate_limit",
			Message: "must be greater than zero",
			Level:   "error",
		})
	}

	return errs
}
