// Package memory derives the Go runtime's soft memory limit from the
// container limit.
//
// Scan trees live in memory while a session runs, so a service scanning
// large volumes can grow close to its container limit. [ConfigureFromEnv]
// reads MEMORY_LIMIT (typically injected through the Kubernetes downward
// API) and sets GOMEMLIMIT to MEMORY_RATIO of it, leaving headroom for
// memory the garbage collector does not manage. An explicit GOMEMLIMIT
// always wins.
//
//	resources:
//	  limits:
//	    memory: 2Gi
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
