package postgres

const schema = `
CREATE TABLE IF NOT EXISTS admission_clusters (
	id            text PRIMARY KEY,
	name          text NOT NULL DEFAULT '',
	limit_cpu     double precision NOT NULL,
	limit_ram     double precision NOT NULL,
	limit_gpu     double precision NOT NULL,
	available_cpu double precision NOT NULL,
	available_ram double precision NOT NULL,
	available_gpu double precision NOT NULL,
	CHECK (available_cpu >= 0 AND available_cpu <= limit_cpu),
	CHECK (available_ram >= 0 AND available_ram <= limit_ram),
	CHECK (available_gpu >= 0 AND available_gpu <= limit_gpu)
);

CREATE TABLE IF NOT EXISTS admission_workloads (
	id           text PRIMARY KEY,
	name         text NOT NULL DEFAULT '',
	cluster_id   text NOT NULL REFERENCES admission_clusters (id),
	image        text NOT NULL DEFAULT '',
	status       text NOT NULL,
	priority     integer NOT NULL DEFAULT 0,
	cpu          double precision NOT NULL,
	ram          double precision NOT NULL,
	gpu          double precision NOT NULL,
	dependencies text[] NOT NULL DEFAULT '{}'
);
`

const (
	selectWorkload = `
SELECT id, name, cluster_id, image, status, priority, cpu, ram, gpu, dependencies
FROM admission_workloads WHERE id = $1`

	selectCluster = `
SELECT id, name, limit_cpu, limit_ram, limit_gpu, available_cpu, available_ram, available_gpu
FROM admission_clusters WHERE id = $1`

	selectClusters = `
SELECT id, name, limit_cpu, limit_ram, limit_gpu, available_cpu, available_ram, available_gpu
FROM admission_clusters ORDER BY id`

	insertCluster = `
INSERT INTO admission_clusters
	(id, name, limit_cpu, limit_ram, limit_gpu, available_cpu, available_ram, available_gpu)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO NOTHING`

	insertWorkload = `
INSERT INTO admission_workloads
	(id, name, cluster_id, image, status, priority, cpu, ram, gpu, dependencies)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

	updateWorkloadStatus = `UPDATE admission_workloads SET status = $2 WHERE id = $1`

	updateClusterAvailable = `
UPDATE admission_clusters SET available_cpu = $2, available_ram = $3, available_gpu = $4
WHERE id = $1`

	clusterExists = `SELECT 1 FROM admission_clusters WHERE id = $1`
)
