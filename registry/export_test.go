package registry

// InvalidTypeName exposes invalidTypeName to the external test package.
const InvalidTypeName = invalidTypeName
