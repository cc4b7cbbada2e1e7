package domain

// KeyPrefix namespaces all gazette keys in the shared Redis instance.
const KeyPrefix = "gazette:"
