/*
Package ports defines the driven ports (interfaces) of the process engine.

These interfaces decouple the instance manager from concrete storage and
coordination backends.

# Key Interfaces

  - DefinitionRepository: resolves built process definitions by id.
  - InstanceStore: persists snapshots of running process instances.
  - DistributedLocker: serializes access to an instance across replicas.
*/
package ports
