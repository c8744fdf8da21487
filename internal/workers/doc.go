/*
Package workers sizes goroutine pools from the CPUs a container may use.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows cgroup
limits. Every helper here starts from GOMAXPROCS:

	// Directory walks block on metadata reads: 2 per CPU, at most 32
	n := workers.ForWalk(32)

	// 3 workers per CPU, no maximum
	n := workers.Count(3.0, 0)

# Environment Variable Override

WALK_WORKERS replaces the computed count (still capped by limit):

	WALK_WORKERS=4 dse verify /data

The dse verify command uses ForWalk for its parallel walk.
*/
package workers
