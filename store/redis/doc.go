// Package redis stores the fincrag run journal in Redis.
//
// Keys:
//
//	{prefix}checkpoint:{checkpoint_id}    JSON checkpoint
//	{prefix}run:{run_id}:checkpoints      sorted set of checkpoint IDs, scored by step
//
// A TTL, when set, applies to both keys so a run expires as a whole.
//
//	s := redis.NewRedisCheckpointStore(redis.RedisOptions{
//		Addr: "localhost:6379",
//		TTL:  24 * time.Hour,
//	})
package redis
