package sqlinline

const QSelectIntegrationToken = `--sql 5f0c7e21-93b4-4d8a-a6e2-1b7d3c9f4e80
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql e2a94b36-0d7f-4c15-b8e9-74c1f5a2d063
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
