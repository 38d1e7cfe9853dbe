// Package behavior provides the stock activity behaviors: wait states,
// automatic pass-through, explicit ends, exclusive and parallel gateways,
// embedded sub processes and call activities.
//
// They only depend on the execution contract in pkg/domain and can be
// attached to any activity through the builder or the registry.
package behavior
