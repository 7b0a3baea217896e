package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionCacheOperationFailed      = "cache_operation_failed"

	ActionLocationUpdate     = "location_update"
	ActionDriverOnline       = "driver_online"
	ActionDriverOffline      = "driver_offline"
	ActionZoneLookup         = "zone_lookup"
	ActionGeofenceTransition = "geofence_transition"
)
