package sim

import (
	"time"

	"github.com/quangdm/fleetdeck/internal/models"
)

// DefaultSeed is the dataset loaded when the simulator starts with an
// empty store, sized to make pagination and region grouping visible.
// Running instances carry both addresses; stopped ones keep only the
// private address, like a real fleet between stop and start.
func DefaultSeed() []models.Instance {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	mk := func(id, name string, state models.InstanceState, itype, region, az string, age time.Duration, pubIP, privIP string) models.Instance {
		return models.Instance{
			ID:               id,
			Name:             name,
			State:            state,
			InstanceType:     itype,
			Region:           region,
			AvailabilityZone: az,
			LaunchTime:       base.Add(-age),
			PublicIP:         pubIP,
			PrivateIP:        privIP,
		}
	}

	return []models.Instance{
		mk("i-0a1f2e3d4c5b6a001", "web-1", models.StateRunning, "t3.medium", "us-east-2", "us-east-2a", 72*time.Hour, "3.12.44.101", "10.0.1.11"),
		mk("i-0a1f2e3d4c5b6a002", "web-2", models.StateRunning, "t3.medium", "us-east-2", "us-east-2b", 72*time.Hour, "3.12.44.102", "10.0.2.12"),
		mk("i-0a1f2e3d4c5b6a003", "worker-1", models.StateStopped, "c5.large", "us-east-2", "us-east-2a", 240*time.Hour, "", "10.0.1.31"),
		mk("i-0a1f2e3d4c5b6a004", "bastion", models.StateRunning, "t3.micro", "us-east-2", "us-east-2c", 1200*time.Hour, "3.12.44.104", "10.0.3.4"),
		mk("i-0b2e3f4a5c6d7b001", "api-1", models.StateRunning, "m5.large", "us-west-2", "us-west-2a", 96*time.Hour, "35.86.12.201", "10.1.1.21"),
		mk("i-0b2e3f4a5c6d7b002", "api-2", models.StateStopped, "m5.large", "us-west-2", "us-west-2b", 96*time.Hour, "", "10.1.2.22"),
		mk("i-0b2e3f4a5c6d7b003", "cache-1", models.StateRunning, "r5.large", "us-west-2", "us-west-2a", 300*time.Hour, "35.86.12.203", "10.1.1.23"),
		mk("i-0c3d4e5f6a7b8c001", "db-replica", models.StateRunning, "r5.xlarge", "eu-west-1", "eu-west-1a", 500*time.Hour, "52.16.9.31", "10.2.1.31"),
		mk("i-0c3d4e5f6a7b8c002", "No Name", models.StatePending, "t3.small", "eu-west-1", "eu-west-1b", time.Hour, "", "10.2.2.32"),
		mk("i-0d4e5f6a7b8c9d001", "batch-1", models.StateStopped, "c5.2xlarge", "ap-southeast-1", "ap-southeast-1a", 48*time.Hour, "", "10.3.1.41"),
		mk("i-0d4e5f6a7b8c9d002", "batch-2", models.StateStopping, "c5.2xlarge", "ap-southeast-1", "ap-southeast-1b", 48*time.Hour, "", "10.3.2.42"),
	}
}
