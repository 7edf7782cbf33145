package network

//go:generate mockgen -destination=mock_network_test.go -package=network . Observer,InteractionHandler
