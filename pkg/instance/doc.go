/*
Package instance hosts process instances on top of a DefinitionRepository and
an InstanceStore.

Every call loads the instance snapshot, drives the execution tree and saves
it back while holding the instance lock: a per-instance mutex, plus an
optional ports.DistributedLocker when several replicas share a store.

Async activities are parked by the runtime and turned into jobs. Jobs are
consumed by Work, which runs a pool of workers until its context ends.
*/
package instance
