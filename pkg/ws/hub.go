package ws

import (
	"context"
	"encoding/json"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

const (
	redisChannelName = "howufeel:broadcast"
)

// Hub 维护活跃的客户端连接并按群组广播事件
type Hub struct {
	// 注册的客户端
	clients map[*Client]bool

	// 房间（Group）对应的客户端集合 GroupID -> Client -> bool
	rooms map[uint]map[*Client]bool

	// 互斥锁，保护 map 的并发读写
	mu sync.RWMutex

	// 注册请求通道
	register chan *Client

	// 注销请求通道
	unregister chan *Client

	// 广播消息通道 (内部使用)
	broadcast chan *BroadcastMessage

	// Redis 客户端，用于分布式广播
	redis *redis.Client

	// 用户 ID 到客户端的映射，方便查找
	userClients map[uint]*Client
}

// BroadcastMessage 广播消息结构
type BroadcastMessage struct {
	GroupID uint `json:"group_id"`
	Message any  `json:"message"`
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		broadcast:   make(chan *BroadcastMessage),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		rooms:       make(map[uint]map[*Client]bool),
		userClients: make(map[uint]*Client),
		redis:       redisClient,
	}
}

func (h *Hub) Run() {
	// 启动 Redis 订阅协程
	if h.redis != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.userID] = client
			// 将客户端加入其所属的 Group 房间
			for _, groupID := range client.groupIDs {
				if _, ok := h.rooms[groupID]; !ok {
					h.rooms[groupID] = make(map[*Client]bool)
				}
				h.rooms[groupID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.userClients, client.userID)
				close(client.send)
				// 从所有房间移除
				for _, groupID := range client.groupIDs {
					if room, ok := h.rooms[groupID]; ok {
						delete(room, client)
						if len(room) == 0 {
							delete(h.rooms, groupID)
						}
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			// 收集需要关闭的客户端，避免在 RLock 中修改 map
			var closedClients []*Client

			// 找到目标 Group 的所有订阅者
			if clients, ok := h.rooms[msg.GroupID]; ok {
				for client := range clients {
					select {
					case client.send <- msg:
					default:
						// 发送缓冲区满，标记为需要关闭
						closedClients = append(closedClients, client)
					}
				}
			}
			h.mu.RUnlock()

			// 处理需要关闭的客户端
			if len(closedClients) > 0 {
				h.mu.Lock()
				for _, client := range closedClients {
					// Double check，防止已经处理过
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
						delete(h.userClients, client.userID)
						for _, groupID := range client.groupIDs {
							if room, ok := h.rooms[groupID]; ok {
								delete(room, client)
								if len(room) == 0 {
									delete(h.rooms, groupID)
								}
							}
						}
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, redisChannelName)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for msg := range ch {
		var broadcastMsg BroadcastMessage
		if err := json.Unmarshal([]byte(msg.Payload), &broadcastMsg); err == nil {
			// 直接送入 h.broadcast，由 Run() 中的循环分发给本地连接
			// 注意：不能再 Publish 回 Redis，否则会死循环
			h.broadcast <- &broadcastMsg
		}
	}
}

// BroadcastToGroup 发送消息到指定 Group 的所有在线客户端
func (h *Hub) BroadcastToGroup(groupID uint, message any) {
	msg := &BroadcastMessage{
		GroupID: groupID,
		Message: message,
	}

	if h.redis != nil {
		// 发布到 Redis，让所有实例（包括自己）通过订阅收到消息
		payload, err := json.Marshal(msg)
		if err == nil {
			h.redis.Publish(context.Background(), redisChannelName, payload)
		}
	} else {
		// 如果没有 Redis，回退到仅本地广播
		h.broadcast <- msg
	}
}
